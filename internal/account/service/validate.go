package service

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultMobileRegion is used to parse mobile numbers written without a
// country prefix.
const DefaultMobileRegion = "CN"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isEmail(email string) bool {
	return validation.Validate(email, validation.Required, is.Email) == nil
}

// mobileIn returns a rule accepting numbers that parse as valid in region.
func mobileIn(region string) *validation.StringRule {
	return validation.NewStringRule(func(s string) bool {
		num, err := phonenumbers.Parse(s, region)
		return err == nil && phonenumbers.IsValidNumber(num)
	}, "must be a valid mobile number")
}

func isMobile(mobile, region string) bool {
	if region == "" {
		region = DefaultMobileRegion
	}
	return validation.Validate(strings.TrimSpace(mobile), validation.Required, mobileIn(region)) == nil
}
