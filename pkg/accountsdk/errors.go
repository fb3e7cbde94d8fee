package accountsdk

import (
	"errors"
	"fmt"
)

// Envelope codes returned by the service.
const (
	CodeOK                 = 0
	CodeTokenExpired       = -1
	CodeDataMissing        = -2
	CodeEmailEmpty         = -3
	CodeEmailFormat        = -4
	CodePasswordEmpty      = -5
	CodeMobileFormat       = -6
	CodeEmailRegistered    = -7
	CodeMobileRegistered   = -8
	CodeAccountNotFound    = -9
	CodeEmailNotRegistered = -10
	CodePasswordMismatch   = -11
	CodeAccountNotActive   = -12
	CodeAccountForbidden   = -13
	CodeLinkExpired        = -14
	CodeLinkInvalid        = -15
	CodeInsufficientPowers = -403
	CodeInternal           = -500
)

// Error is a failure envelope returned by the service.
type Error struct {
	// StatusCode is the HTTP status the envelope arrived with.
	StatusCode int
	Code       int
	Msg        string
}

func (e *Error) Error() string {
	return fmt.Sprintf("accountd: %s (code %d, http %d)", e.Msg, e.Code, e.StatusCode)
}

// IsCode reports whether err is an *Error with the given envelope code.
func IsCode(err error, code int) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
