package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

const authorizationColumns = "id, authorization_id, user_id, sender_account_id, receiver_account_id, amount, narration, state, cot_required, secure_id_required, transaction_id, created_at, updated_at"

// CreateAuthorization persists a new multi-factor transfer attempt.
func (d Datasource) CreateAuthorization(ctx context.Context, auth *model.TransferAuthorization) (*model.TransferAuthorization, error) {
	auth.AuthorizationID = model.GenerateUUIDWithSuffix("auth")
	auth.CreatedAt = time.Now()
	auth.UpdatedAt = auth.CreatedAt

	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO meridian.transfer_authorizations (authorization_id, user_id, sender_account_id, receiver_account_id, amount, narration, state, cot_required, secure_id_required, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, auth.AuthorizationID, auth.UserID, auth.SenderAccountID, auth.ReceiverAccountID, auth.Amount, auth.Narration, auth.State, auth.CotRequired, auth.SecureIDRequired, auth.CreatedAt, auth.UpdatedAt).Scan(&auth.ID)
	if err != nil {
		return nil, classifyPgError(err, "Failed to create authorization")
	}
	return auth, nil
}

// GetAuthorization retrieves an attempt by its public ID.
func (d Datasource) GetAuthorization(ctx context.Context, id string) (*model.TransferAuthorization, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+authorizationColumns+`
		FROM meridian.transfer_authorizations
		WHERE authorization_id = $1
	`, id)

	auth, err := scanAuthorization(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Authorization with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve authorization", err)
	}
	return auth, nil
}

// AdvanceAuthorization moves an attempt from one state to the next. The state
// is part of the predicate, so two racing submissions of the same factor can
// only advance the attempt once; the loser finds no row and gets a conflict.
func (d Datasource) AdvanceAuthorization(ctx context.Context, id string, from, to model.AuthorizationState) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE meridian.transfer_authorizations
		SET state = $3, updated_at = NOW()
		WHERE authorization_id = $1 AND state = $2
	`, id, from, to)
	if err != nil {
		return classifyPgError(err, "Failed to advance authorization")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Authorization '%s' is not in state '%s'", id, from), nil)
	}
	return nil
}

// FailAuthorization marks a non-terminal attempt failed. Failing an already
// terminal attempt is a no-op.
func (d Datasource) FailAuthorization(ctx context.Context, id string) error {
	_, err := d.Conn.ExecContext(ctx, `
		UPDATE meridian.transfer_authorizations
		SET state = $2, updated_at = NOW()
		WHERE authorization_id = $1 AND state NOT IN ($3, $4)
	`, id, model.AuthFailed, model.AuthExecuted, model.AuthFailed)
	if err != nil {
		return classifyPgError(err, "Failed to mark authorization failed")
	}
	return nil
}

// ExecuteAuthorizedTransfer claims an authorized attempt and runs its transfer
// in the same database transaction. The claim is a conditional update from
// authorized to executed, so a second execution of the same attempt finds no
// row and fails before touching any balance. If the transfer itself fails the
// whole transaction rolls back and the attempt stays authorized; the service
// decides whether to fail it.
func (d Datasource) ExecuteAuthorizedTransfer(ctx context.Context, id string) (*model.Transaction, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin execution", err)
	}
	defer rollback(tx)

	row := tx.QueryRowContext(ctx, `
		UPDATE meridian.transfer_authorizations
		SET state = $2, updated_at = NOW()
		WHERE authorization_id = $1 AND state = $3
		RETURNING `+authorizationColumns+`
	`, id, model.AuthExecuted, model.AuthAuthorized)
	auth, err := scanAuthorization(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Authorization '%s' is not authorized for execution", id), err)
		}
		return nil, classifyPgError(err, "Failed to claim authorization")
	}

	txn := &model.Transaction{
		SenderAccountID:   &auth.SenderAccountID,
		ReceiverAccountID: &auth.ReceiverAccountID,
		Amount:            auth.Amount,
		Type:              model.TypeTransfer,
		Narration:         auth.Narration,
	}
	recorded, err := d.transferInTx(ctx, tx, txn)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE meridian.transfer_authorizations
		SET transaction_id = $2
		WHERE authorization_id = $1
	`, id, recorded.TransactionID)
	if err != nil {
		return nil, classifyPgError(err, "Failed to link authorization transaction")
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyPgError(err, "Failed to commit execution")
	}
	return recorded, nil
}

func scanAuthorization(row rowScanner) (*model.TransferAuthorization, error) {
	auth := &model.TransferAuthorization{}
	err := row.Scan(&auth.ID, &auth.AuthorizationID, &auth.UserID, &auth.SenderAccountID, &auth.ReceiverAccountID, &auth.Amount, &auth.Narration, &auth.State, &auth.CotRequired, &auth.SecureIDRequired, &auth.TransactionID, &auth.CreatedAt, &auth.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return auth, nil
}
