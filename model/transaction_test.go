package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestTransactionValidate(t *testing.T) {
	txn := &Transaction{
		Type:              TypeTransfer,
		Amount:            decimal.NewFromFloat(100.50),
		SenderAccountID:   strPtr("acc_1"),
		ReceiverAccountID: strPtr("acc_2"),
	}
	assert.NoError(t, txn.Validate())
}

func TestTransactionValidateRejectsNonPositiveAmount(t *testing.T) {
	txn := &Transaction{
		Type:              TypeTransfer,
		Amount:            decimal.Zero,
		SenderAccountID:   strPtr("acc_1"),
		ReceiverAccountID: strPtr("acc_2"),
	}
	assert.Error(t, txn.Validate())

	txn.Amount = decimal.NewFromFloat(-5)
	assert.Error(t, txn.Validate())
}

func TestTransactionValidateRejectsSameAccount(t *testing.T) {
	txn := &Transaction{
		Type:              TypeTransfer,
		Amount:            decimal.NewFromInt(10),
		SenderAccountID:   strPtr("acc_1"),
		ReceiverAccountID: strPtr("acc_1"),
	}
	assert.Error(t, txn.Validate())
}

func TestTransactionValidateAllowsOneSidedEntries(t *testing.T) {
	deposit := &Transaction{
		Type:              TypeDeposit,
		Amount:            decimal.NewFromInt(1000),
		ReceiverAccountID: strPtr("acc_1"),
	}
	assert.NoError(t, deposit.Validate())

	withdrawal := &Transaction{
		Type:            TypeWithdrawal,
		Amount:          decimal.NewFromInt(50),
		SenderAccountID: strPtr("acc_1"),
	}
	assert.NoError(t, withdrawal.Validate())

	orphan := &Transaction{Type: TypeDeposit, Amount: decimal.NewFromInt(1)}
	assert.Error(t, orphan.Validate())
}

func TestTransactionReversible(t *testing.T) {
	txn := &Transaction{Type: TypeTransfer, Status: StatusCompleted}
	assert.True(t, txn.Reversible())

	txn.Status = StatusReversed
	assert.False(t, txn.Reversible())

	reversal := &Transaction{Type: TypeReversal, Status: StatusCompleted}
	assert.False(t, reversal.Reversible())
}

func TestParseTransactionType(t *testing.T) {
	for _, valid := range []string{"transfer", "deposit", "withdrawal", "reversal"} {
		parsed, err := ParseTransactionType(valid)
		assert.NoError(t, err)
		assert.Equal(t, valid, string(parsed))
	}
	_, err := ParseTransactionType("wire")
	assert.Error(t, err)
}

func TestParseAccountType(t *testing.T) {
	for _, valid := range []string{"savings", "current", "checking"} {
		parsed, err := ParseAccountType(valid)
		assert.NoError(t, err)
		assert.Equal(t, valid, string(parsed))
	}
	_, err := ParseAccountType("offshore")
	assert.Error(t, err)
}

func TestAccountCanDebit(t *testing.T) {
	account := &Account{Status: AccountStatusActive, Balance: decimal.NewFromInt(500)}
	assert.True(t, account.CanDebit())
	assert.True(t, account.HasSufficientBalance(decimal.NewFromInt(500)))
	assert.False(t, account.HasSufficientBalance(decimal.NewFromFloat(500.01)))

	account.Status = AccountStatusFrozen
	assert.False(t, account.CanDebit())
}
