package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is a closed set of supported account products.
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCurrent  AccountType = "current"
	AccountTypeChecking AccountType = "checking"
)

// ParseAccountType maps a raw string onto the closed AccountType set.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountTypeSavings:
		return AccountTypeSavings, nil
	case AccountTypeCurrent:
		return AccountTypeCurrent, nil
	case AccountTypeChecking:
		return AccountTypeChecking, nil
	default:
		return "", fmt.Errorf("unknown account type %q", s)
	}
}

// AccountStatus is the lifecycle state of an account. Accounts are never
// deleted; they are frozen instead.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
)

// ParseAccountStatus maps a raw string onto the closed AccountStatus set.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch AccountStatus(s) {
	case AccountStatusActive:
		return AccountStatusActive, nil
	case AccountStatusFrozen:
		return AccountStatusFrozen, nil
	default:
		return "", fmt.Errorf("unknown account status %q", s)
	}
}

// Account holds a customer balance. The balance is only ever mutated through
// the datasource's transactional debit/credit primitives, paired with a ledger
// entry in the same commit.
type Account struct {
	ID        int64           `json:"-"`
	AccountID string          `json:"account_id"`
	UserID    string          `json:"user_id"`
	Number    string          `json:"account_number"`
	Type      AccountType     `json:"account_type"`
	Balance   decimal.Decimal `json:"balance"`
	Status    AccountStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CanDebit reports whether the account allows outgoing funds. Frozen accounts
// block debits; credits are still accepted so inbound transfers never bounce.
func (a *Account) CanDebit() bool {
	return a.Status == AccountStatusActive
}

// HasSufficientBalance reports whether a debit of amount would keep the
// balance non-negative.
func (a *Account) HasSufficientBalance(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
