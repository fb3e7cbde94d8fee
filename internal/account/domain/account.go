package domain

import "time"

// Status is the lifecycle state of an account.
type Status int

const (
	StatusForbidden   Status = -1
	StatusUnactivated Status = 0
	StatusActive      Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusUnactivated:
		return "unactivated"
	case StatusActive:
		return "active"
	default:
		return "forbidden"
	}
}

type Account struct {
	ID                string
	Email             string
	Mobile            string // empty when not bound
	PasswordDigest    string // md5 hex
	Status            Status
	ActiveToken       string // current activation secret, empty when none was sent
	LoginFailTimes    int
	LastLoginAt       *time.Time
	ForbiddenExpireAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsActive reports whether the account may log in.
func (a Account) IsActive() bool { return a.Status == StatusActive }

// AccountSummary is the externally visible part of an account.
type AccountSummary struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Mobile string `json:"mobile,omitempty"`
	Status Status `json:"status"`
}

func (a Account) Summary() AccountSummary {
	return AccountSummary{
		ID:     a.ID,
		Email:  a.Email,
		Mobile: a.Mobile,
		Status: a.Status,
	}
}
