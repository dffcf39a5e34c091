package model

import (
	"fmt"
	"time"
)

// OtpTTL is the validity window of a one-time password.
const OtpTTL = 5 * time.Minute

// Otp is a short-lived, single-use numeric code. At most one live Otp exists
// per user: issuing a new one marks all prior unused codes as used.
type Otp struct {
	ID        int64     `json:"-"`
	OtpID     string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// UserPin is the durable transaction PIN credential. Only the bcrypt hash is
// ever stored; updating replaces the prior value rather than appending.
type UserPin struct {
	ID        int64     `json:"-"`
	UserID    string    `json:"user_id"`
	PinHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StepUpKind identifies a secondary transfer-authorization factor.
type StepUpKind string

const (
	StepUpCot      StepUpKind = "cot"
	StepUpSecureID StepUpKind = "secure_id"
)

// ParseStepUpKind maps a raw string onto the closed StepUpKind set.
func ParseStepUpKind(s string) (StepUpKind, error) {
	switch StepUpKind(s) {
	case StepUpCot:
		return StepUpCot, nil
	case StepUpSecureID:
		return StepUpSecureID, nil
	default:
		return "", fmt.Errorf("unknown step-up kind %q", s)
	}
}

// StepUpCode is a durable configured step-up code (COT or Secure-ID). Unlike
// an Otp it is reusable; single-use semantics can be layered on by swapping the
// verifier without touching callers.
type StepUpCode struct {
	ID        int64      `json:"-"`
	UserID    string     `json:"user_id"`
	Kind      StepUpKind `json:"kind"`
	CodeHash  string     `json:"-"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
