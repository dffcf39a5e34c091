package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuthorizationState is the server-tracked position of a step-up transfer
// attempt. The client submits one factor at a time against the persisted
// attempt, so a scripted client cannot skip factors.
type AuthorizationState string

const (
	AuthCollecting       AuthorizationState = "collecting"
	AuthAwaitingPin      AuthorizationState = "awaiting_pin"
	AuthAwaitingCot      AuthorizationState = "awaiting_cot"
	AuthAwaitingSecureID AuthorizationState = "awaiting_secure_id"
	AuthAuthorized       AuthorizationState = "authorized"
	AuthExecuted         AuthorizationState = "executed"
	AuthFailed           AuthorizationState = "failed"
)

// Factor is a step-up credential kind submitted against an authorization.
type Factor string

const (
	FactorPin      Factor = "pin"
	FactorCot      Factor = "cot"
	FactorSecureID Factor = "secure_id"
)

// ErrWrongFactor is returned when a factor is submitted out of order or the
// attempt is no longer accepting factors.
var ErrWrongFactor = errors.New("authorization is not awaiting this factor")

// TransferAuthorization is a durable multi-factor transfer attempt. The
// transfer details are captured up front; the attempt advances one verified
// factor at a time until authorized, then executes exactly once.
type TransferAuthorization struct {
	ID                int64              `json:"-"`
	AuthorizationID   string             `json:"id"`
	UserID            string             `json:"user_id"`
	SenderAccountID   string             `json:"sender_account_id"`
	ReceiverAccountID string             `json:"receiver_account_id"`
	Amount            decimal.Decimal    `json:"amount"`
	Narration         string             `json:"narration,omitempty"`
	State             AuthorizationState `json:"state"`
	CotRequired       bool               `json:"cot_required"`
	SecureIDRequired  bool               `json:"secure_id_required"`
	TransactionID     *string            `json:"transaction_id,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Begin moves a structurally valid attempt out of the collecting state. The
// caller is responsible for having validated sender, receiver and amount.
func (a *TransferAuthorization) Begin() error {
	if a.State != AuthCollecting {
		return fmt.Errorf("authorization already started (state %s)", a.State)
	}
	a.State = AuthAwaitingPin
	return nil
}

// AwaitedFactor returns the factor the attempt is currently waiting on.
// ok is false when no factor is awaited (authorized, executed or failed).
func (a *TransferAuthorization) AwaitedFactor() (Factor, bool) {
	switch a.State {
	case AuthAwaitingPin:
		return FactorPin, true
	case AuthAwaitingCot:
		return FactorCot, true
	case AuthAwaitingSecureID:
		return FactorSecureID, true
	default:
		return "", false
	}
}

// Advance records one successfully verified factor and moves the attempt to
// the next enabled factor, or to authorized when the chain is complete. A
// factor submitted out of order returns ErrWrongFactor and leaves the state
// untouched; a failed verification must not call Advance at all.
func (a *TransferAuthorization) Advance(factor Factor) error {
	awaited, ok := a.AwaitedFactor()
	if !ok || awaited != factor {
		return ErrWrongFactor
	}
	switch a.State {
	case AuthAwaitingPin:
		a.State = a.nextAfterPin()
	case AuthAwaitingCot:
		a.State = a.nextAfterCot()
	case AuthAwaitingSecureID:
		a.State = AuthAuthorized
	}
	return nil
}

func (a *TransferAuthorization) nextAfterPin() AuthorizationState {
	if a.CotRequired {
		return AuthAwaitingCot
	}
	return a.nextAfterCot()
}

func (a *TransferAuthorization) nextAfterCot() AuthorizationState {
	if a.SecureIDRequired {
		return AuthAwaitingSecureID
	}
	return AuthAuthorized
}

// Terminal reports whether the attempt can no longer change state.
func (a *TransferAuthorization) Terminal() bool {
	return a.State == AuthExecuted || a.State == AuthFailed
}
