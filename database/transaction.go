package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

const transactionColumns = "id, transaction_id, reference_code, sender_account_id, receiver_account_id, amount, transaction_type, status, narration, created_at"

// ExecuteTransfer moves funds between two accounts as one database
// transaction. Both account rows are locked with SELECT ... FOR UPDATE in
// ascending account order so concurrent opposing transfers cannot deadlock,
// then the debit, the credit and the ledger insert commit together. On any
// failure the transaction rolls back and no balance moves.
func (d Datasource) ExecuteTransfer(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	if txn.Type != model.TypeTransfer {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Entry is not a transfer", nil)
	}
	if err := txn.Validate(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transfer", err)
	}
	defer rollback(tx)

	recorded, err := d.transferInTx(ctx, tx, txn)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyPgError(err, "Failed to commit transfer")
	}
	return recorded, nil
}

// transferInTx applies a transfer's movement inside an open transaction.
// Callers own commit and rollback.
func (d Datasource) transferInTx(ctx context.Context, tx *sql.Tx, txn *model.Transaction) (*model.Transaction, error) {
	sender, receiver, err := d.lockTransferAccounts(ctx, tx, *txn.SenderAccountID, *txn.ReceiverAccountID)
	if err != nil {
		return nil, err
	}

	if !sender.CanDebit() {
		return nil, apierror.NewAPIError(apierror.ErrAccountFrozen, fmt.Sprintf("Account '%s' is frozen", sender.AccountID), nil)
	}
	if !sender.HasSufficientBalance(txn.Amount) {
		return nil, apierror.NewAPIError(apierror.ErrInsufficientFunds, "Insufficient funds", nil)
	}

	if err := d.moveBalance(ctx, tx, sender.AccountID, txn.Amount.Neg()); err != nil {
		return nil, err
	}
	if err := d.moveBalance(ctx, tx, receiver.AccountID, txn.Amount); err != nil {
		return nil, err
	}

	txn.Status = model.StatusCompleted
	return d.insertTransaction(ctx, tx, txn)
}

// ApplyAdjustment applies a one-sided deposit or withdrawal against a single
// account. bypassFrozen lets operator corrections debit frozen accounts; the
// non-negative balance invariant is never bypassed.
func (d Datasource) ApplyAdjustment(ctx context.Context, txn *model.Transaction, bypassFrozen bool) (*model.Transaction, error) {
	if txn.Type != model.TypeDeposit && txn.Type != model.TypeWithdrawal {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Adjustment must be a deposit or withdrawal", nil)
	}
	if err := txn.Validate(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin adjustment", err)
	}
	defer rollback(tx)

	var recorded *model.Transaction
	switch txn.Type {
	case model.TypeDeposit:
		account, err := d.lockAccount(ctx, tx, *txn.ReceiverAccountID)
		if err != nil {
			return nil, err
		}
		// Credits land even on frozen accounts.
		if err := d.moveBalance(ctx, tx, account.AccountID, txn.Amount); err != nil {
			return nil, err
		}
	case model.TypeWithdrawal:
		account, err := d.lockAccount(ctx, tx, *txn.SenderAccountID)
		if err != nil {
			return nil, err
		}
		if !bypassFrozen && !account.CanDebit() {
			return nil, apierror.NewAPIError(apierror.ErrAccountFrozen, fmt.Sprintf("Account '%s' is frozen", account.AccountID), nil)
		}
		if !account.HasSufficientBalance(txn.Amount) {
			return nil, apierror.NewAPIError(apierror.ErrInsufficientFunds, "Insufficient funds", nil)
		}
		if err := d.moveBalance(ctx, tx, account.AccountID, txn.Amount.Neg()); err != nil {
			return nil, err
		}
	}

	txn.Status = model.StatusCompleted
	recorded, err = d.insertTransaction(ctx, tx, txn)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyPgError(err, "Failed to commit adjustment")
	}
	return recorded, nil
}

// ReverseTransaction undoes a completed ledger entry. The original row is
// locked, flipped to reversed, and a compensating reversal entry moving the
// funds back is recorded in the same commit. A second reversal of the same
// entry finds it already reversed and fails, so reversal is exactly-once.
// Reversals are operator actions and bypass frozen status, but a receiver who
// has already spent the funds still fails the sufficient-balance check.
func (d Datasource) ReverseTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin reversal", err)
	}
	defer rollback(tx)

	row := tx.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM meridian.transactions
		WHERE transaction_id = $1
		FOR UPDATE
	`, transactionID)
	original, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", transactionID), err)
		}
		return nil, classifyPgError(err, "Failed to retrieve transaction")
	}

	if !original.Reversible() {
		return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Transaction '%s' cannot be reversed (type %s, status %s)", transactionID, original.Type, original.Status), nil)
	}

	// Undo each leg of the original movement. Lock order follows the same
	// ascending rule as transfers. The side being debited must still hold the
	// funds; frozen status is not re-checked for operator-driven reversals.
	switch {
	case original.SenderAccountID != nil && original.ReceiverAccountID != nil:
		_, receiver, err := d.lockTransferAccounts(ctx, tx, *original.SenderAccountID, *original.ReceiverAccountID)
		if err != nil {
			return nil, err
		}
		if !receiver.HasSufficientBalance(original.Amount) {
			return nil, apierror.NewAPIError(apierror.ErrInsufficientFunds, fmt.Sprintf("Account '%s' has insufficient funds for reversal", receiver.AccountID), nil)
		}
		if err := d.moveBalance(ctx, tx, receiver.AccountID, original.Amount.Neg()); err != nil {
			return nil, err
		}
		if err := d.moveBalance(ctx, tx, *original.SenderAccountID, original.Amount); err != nil {
			return nil, err
		}
	case original.ReceiverAccountID != nil:
		receiver, err := d.lockAccount(ctx, tx, *original.ReceiverAccountID)
		if err != nil {
			return nil, err
		}
		if !receiver.HasSufficientBalance(original.Amount) {
			return nil, apierror.NewAPIError(apierror.ErrInsufficientFunds, fmt.Sprintf("Account '%s' has insufficient funds for reversal", receiver.AccountID), nil)
		}
		if err := d.moveBalance(ctx, tx, receiver.AccountID, original.Amount.Neg()); err != nil {
			return nil, err
		}
	default:
		if _, err := d.lockAccount(ctx, tx, *original.SenderAccountID); err != nil {
			return nil, err
		}
		if err := d.moveBalance(ctx, tx, *original.SenderAccountID, original.Amount); err != nil {
			return nil, err
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE meridian.transactions
		SET status = $2
		WHERE transaction_id = $1 AND status = $3
	`, transactionID, model.StatusReversed, model.StatusCompleted)
	if err != nil {
		return nil, classifyPgError(err, "Failed to mark transaction reversed")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Transaction '%s' was already reversed", transactionID), nil)
	}

	reversal := &model.Transaction{
		SenderAccountID:   original.ReceiverAccountID,
		ReceiverAccountID: original.SenderAccountID,
		Amount:            original.Amount,
		Type:              model.TypeReversal,
		Status:            model.StatusCompleted,
		Narration:         fmt.Sprintf("Reversal of %s", original.Reference),
	}
	recorded, err := d.insertTransaction(ctx, tx, reversal)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyPgError(err, "Failed to commit reversal")
	}
	return recorded, nil
}

// GetTransaction retrieves a ledger entry by its public ID.
func (d Datasource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM meridian.transactions
		WHERE transaction_id = $1
	`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transaction", err)
	}
	return txn, nil
}

// GetTransactionByRef retrieves a ledger entry by its reference code.
func (d Datasource) GetTransactionByRef(ctx context.Context, reference string) (*model.Transaction, error) {
	ctx, span := otel.Tracer("meridian.transfers").Start(ctx, "Getting ledger entry from db by reference")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM meridian.transactions
		WHERE reference_code = $1
	`, reference)

	txn, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with reference '%s' not found", reference), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transaction", err)
	}
	return txn, nil
}

// GetTransactionsByAccount retrieves entries where the account appears on
// either side, newest first.
func (d Datasource) GetTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM meridian.transactions
		WHERE sender_account_id = $1 OR receiver_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetTransactionsByUser retrieves entries touching any account the user owns,
// newest first.
func (d Datasource) GetTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM meridian.transactions t
		WHERE EXISTS (
			SELECT 1 FROM meridian.accounts a
			WHERE a.user_id = $1
			AND (a.account_id = t.sender_account_id OR a.account_id = t.receiver_account_id)
		)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetTransactionsByStatus retrieves entries in a given status, newest first.
func (d Datasource) GetTransactionsByStatus(ctx context.Context, status model.TransactionStatus, limit, offset int) ([]*model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM meridian.transactions
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// lockTransferAccounts locks both rows of a transfer in ascending account-id
// order. Every multi-account operation takes its locks through here, which
// keeps the acquisition order global and deadlock-free.
func (d Datasource) lockTransferAccounts(ctx context.Context, tx *sql.Tx, senderID, receiverID string) (sender, receiver *model.Account, err error) {
	first, second := senderID, receiverID
	if second < first {
		first, second = second, first
	}

	firstAccount, err := d.lockAccount(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	secondAccount, err := d.lockAccount(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}

	if first == senderID {
		return firstAccount, secondAccount, nil
	}
	return secondAccount, firstAccount, nil
}

// lockAccount reads one account row under FOR UPDATE inside an open
// transaction. The lock is held until the transaction commits or rolls back.
func (d Datasource) lockAccount(ctx context.Context, tx *sql.Tx, accountID string) (*model.Account, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM meridian.accounts
		WHERE account_id = $1
		FOR UPDATE
	`, accountID)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", accountID), err)
		}
		return nil, classifyPgError(err, "Failed to lock account")
	}
	return account, nil
}

// moveBalance applies a signed delta to a locked account row. The schema's
// non-negative check backstops the in-transaction balance validation.
func (d Datasource) moveBalance(ctx context.Context, tx *sql.Tx, accountID string, delta decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE meridian.accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE account_id = $1
	`, accountID, delta)
	if err != nil {
		return classifyPgError(err, "Failed to update account balance")
	}
	return nil
}

// insertTransaction records a ledger entry inside an open transaction. The
// reference is generated here when absent; a reference collision aborts the
// surrounding transaction, so it surfaces as retryable and the caller's retry
// draws a fresh code.
func (d Datasource) insertTransaction(ctx context.Context, tx *sql.Tx, txn *model.Transaction) (*model.Transaction, error) {
	ctx, span := otel.Tracer("meridian.transfers").Start(ctx, "Saving ledger entry to db")
	defer span.End()

	txn.TransactionID = model.GenerateUUIDWithSuffix("txn")
	if txn.Reference == "" {
		txn.Reference = model.NewReference()
	}
	txn.CreatedAt = time.Now()

	err := tx.QueryRowContext(ctx, `
		INSERT INTO meridian.transactions (transaction_id, reference_code, sender_account_id, receiver_account_id, amount, transaction_type, status, narration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, txn.TransactionID, txn.Reference, txn.SenderAccountID, txn.ReceiverAccountID, txn.Amount, txn.Type, txn.Status, txn.Narration, txn.CreatedAt).Scan(&txn.ID)
	if err != nil {
		span.RecordError(err)
		apiErr := classifyPgError(err, "Failed to record transaction")
		if apierror.CodeOf(apiErr) == apierror.ErrConflict {
			txn.Reference = ""
			return nil, apierror.NewAPIError(apierror.ErrTransient, "Reference code collision, retry", err)
		}
		return nil, apiErr
	}
	return txn, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	txn := &model.Transaction{}
	err := row.Scan(&txn.ID, &txn.TransactionID, &txn.Reference, &txn.SenderAccountID, &txn.ReceiverAccountID, &txn.Amount, &txn.Type, &txn.Status, &txn.Narration, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func collectTransactions(rows *sql.Rows) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction data", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over transactions", err)
	}
	return transactions, nil
}
