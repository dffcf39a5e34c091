package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is a closed set of ledger entry kinds.
type TransactionType string

const (
	TypeTransfer   TransactionType = "transfer"
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeReversal   TransactionType = "reversal"
)

// ParseTransactionType maps a raw string onto the closed TransactionType set.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TypeTransfer:
		return TypeTransfer, nil
	case TypeDeposit:
		return TypeDeposit, nil
	case TypeWithdrawal:
		return TypeWithdrawal, nil
	case TypeReversal:
		return TypeReversal, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// TransactionStatus tracks a ledger entry through its lifecycle. The only
// permitted mutation after commit is completed -> reversed.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusReversed  TransactionStatus = "reversed"
)

// ParseTransactionStatus maps a raw string onto the closed status set.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch TransactionStatus(s) {
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusReversed:
		return StatusReversed, nil
	default:
		return "", fmt.Errorf("unknown transaction status %q", s)
	}
}

// Transaction is an append-only audit record of one funds movement.
// SenderAccountID is nil for pure deposits from outside; ReceiverAccountID is
// nil for pure withdrawals and external wires.
type Transaction struct {
	ID                int64             `json:"-"`
	TransactionID     string            `json:"id"`
	Reference         string            `json:"reference_code"`
	SenderAccountID   *string           `json:"sender_account_id,omitempty"`
	ReceiverAccountID *string           `json:"receiver_account_id,omitempty"`
	Amount            decimal.Decimal   `json:"amount"`
	Type              TransactionType   `json:"transaction_type"`
	Status            TransactionStatus `json:"status"`
	Narration         string            `json:"narration,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Validate checks the structural invariants every ledger entry must satisfy
// before it touches the store.
func (transaction *Transaction) Validate() error {
	if !transaction.Amount.IsPositive() {
		return errors.New("transaction amount must be positive")
	}
	if transaction.SenderAccountID == nil && transaction.ReceiverAccountID == nil {
		return errors.New("transaction must reference at least one account")
	}
	if transaction.Type == TypeTransfer {
		if transaction.SenderAccountID == nil || transaction.ReceiverAccountID == nil {
			return errors.New("transfer must reference both sender and receiver accounts")
		}
		if *transaction.SenderAccountID == *transaction.ReceiverAccountID {
			return errors.New("cannot transfer to the same account")
		}
	}
	return nil
}

// Reversible reports whether the entry can still be reversed. Reversal entries
// themselves are terminal.
func (transaction *Transaction) Reversible() bool {
	return transaction.Status == StatusCompleted && transaction.Type != TypeReversal
}
