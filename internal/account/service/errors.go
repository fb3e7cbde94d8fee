package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

// Kind classifies a Fault for transports and metrics.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindAuthFailure
	KindLinkExpired
	KindLinkInvalid
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuthFailure:
		return "auth_failure"
	case KindLinkExpired:
		return "link_expired"
	case KindLinkInvalid:
		return "link_invalid"
	default:
		return "system"
	}
}

// Fault is an expected failure of a public operation. Code and Msg are what
// callers see in the response envelope.
type Fault struct {
	Kind Kind
	Code int
	Msg  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s (%d)", f.Msg, f.Code)
}

// TokenExpiredCode is the envelope code for every failed credential check.
const TokenExpiredCode = -1

var (
	ErrDataMissing   = &Fault{Kind: KindValidation, Code: -2, Msg: "request data is missing"}
	ErrEmailEmpty    = &Fault{Kind: KindValidation, Code: -3, Msg: "email is empty or malformed"}
	ErrEmailFormat   = &Fault{Kind: KindValidation, Code: -4, Msg: "email format is invalid"}
	ErrPasswordEmpty = &Fault{Kind: KindValidation, Code: -5, Msg: "password is empty"}
	ErrMobileFormat  = &Fault{Kind: KindValidation, Code: -6, Msg: "mobile number format is invalid"}

	ErrEmailRegistered  = &Fault{Kind: KindConflict, Code: -7, Msg: "email is already registered"}
	ErrMobileRegistered = &Fault{Kind: KindConflict, Code: -8, Msg: "mobile is already registered"}

	ErrAccountNotFound    = &Fault{Kind: KindNotFound, Code: -9, Msg: "account does not exist"}
	ErrEmailNotRegistered = &Fault{Kind: KindNotFound, Code: -10, Msg: "email is not registered"}

	ErrPasswordMismatch = &Fault{Kind: KindAuthFailure, Code: -11, Msg: "password does not match"}
	ErrAccountNotActive = &Fault{Kind: KindAuthFailure, Code: -12, Msg: "account is not activated"}
	ErrAccountForbidden = &Fault{Kind: KindAuthFailure, Code: -13, Msg: "account is forbidden"}

	// ErrTokenExpired covers every way a credential can fail: missing fields,
	// unknown token, wrong signature.
	ErrTokenExpired = &Fault{Kind: KindAuthFailure, Code: TokenExpiredCode, Msg: "token expire"}

	ErrLinkExpired = &Fault{Kind: KindLinkExpired, Code: -14, Msg: "activation link has expired"}
	ErrLinkInvalid = &Fault{Kind: KindLinkInvalid, Code: -15, Msg: "activation link is invalid"}

	ErrSystem = &Fault{Kind: KindSystem, Code: -500, Msg: "internal error"}
)

// AsFault returns the Fault carried by err. Anything else is logged with the
// request logger and replaced by ErrSystem. A nil err yields nil.
func AsFault(ctx context.Context, err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	slogx.FromContext(ctx).Error("unexpected failure", slog.Any("error", err))
	return ErrSystem
}
