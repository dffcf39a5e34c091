package meridian

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

var (
	tracer = otel.Tracer("meridian.transfers")
)

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// TransferRequest carries the details of one funds movement between two
// accounts. Receiver may be given by account ID or resolved from an account
// number before execution.
type TransferRequest struct {
	SenderAccountID   string
	ReceiverAccountID string
	Amount            decimal.Decimal
	Narration         string
}

// Transfer executes a proven-authorized movement of funds. Validation happens
// before any store access; the movement itself is atomic and retried as a
// whole on lock contention.
func (m *Meridian) Transfer(ctx context.Context, req TransferRequest) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Recording transfer")
	defer span.End()

	if err := m.validateTransfer(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	txn := &model.Transaction{
		SenderAccountID:   &req.SenderAccountID,
		ReceiverAccountID: &req.ReceiverAccountID,
		Amount:            req.Amount,
		Type:              model.TypeTransfer,
		Narration:         req.Narration,
	}

	var recorded *model.Transaction
	err := withRetry(ctx, func() error {
		var execErr error
		recorded, execErr = m.datasource.ExecuteTransfer(ctx, txn)
		return execErr
	})
	if err != nil {
		return nil, logAndRecordError(span, "commit transfer error: ", err)
	}
	span.AddEvent("Transfer recorded", trace.WithAttributes(attribute.String("transaction.id", recorded.TransactionID)))
	return recorded, nil
}

// TransferToNumber resolves the receiver from an account number, then
// transfers. This is the shape customer-facing clients use; they know the
// beneficiary's number, not its internal ID.
func (m *Meridian) TransferToNumber(ctx context.Context, senderAccountID, receiverNumber string, amount decimal.Decimal, narration string) (*model.Transaction, error) {
	receiver, err := m.datasource.GetAccountByNumber(ctx, receiverNumber)
	if err != nil {
		return nil, err
	}
	return m.Transfer(ctx, TransferRequest{
		SenderAccountID:   senderAccountID,
		ReceiverAccountID: receiver.AccountID,
		Amount:            amount,
		Narration:         narration,
	})
}

// TransferWithPin verifies the sender's PIN, plus any step-up codes the user
// has enabled, in one shot and then transfers. A user with COT or Secure-ID
// enabled must supply those codes here; omitting one is an authorization
// failure, not a pass.
func (m *Meridian) TransferWithPin(ctx context.Context, userID, pin string, req TransferRequest, cotCode, secureIDCode *string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Verifying transfer credentials")
	defer span.End()

	if err := m.requireOwnership(ctx, userID, req.SenderAccountID); err != nil {
		return nil, err
	}
	if err := m.VerifyPin(ctx, userID, pin); err != nil {
		span.RecordError(err)
		return nil, err
	}

	enabled, err := m.datasource.GetEnabledStepUpKinds(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enabled[model.StepUpCot] {
		if cotCode == nil {
			return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Invalid credential", nil)
		}
		if err := m.VerifyStepUpCode(ctx, userID, model.StepUpCot, *cotCode); err != nil {
			return nil, err
		}
	}
	if enabled[model.StepUpSecureID] {
		if secureIDCode == nil {
			return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Invalid credential", nil)
		}
		if err := m.VerifyStepUpCode(ctx, userID, model.StepUpSecureID, *secureIDCode); err != nil {
			return nil, err
		}
	}

	span.AddEvent("Transfer credentials verified")
	return m.Transfer(ctx, req)
}

// VerifyOtpAndTransfer consumes a live OTP in place of the PIN chain and then
// transfers. The OTP is consumed exactly once even if the transfer itself
// fails; a fresh code is needed for another attempt.
func (m *Meridian) VerifyOtpAndTransfer(ctx context.Context, userID, code string, req TransferRequest) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Consuming OTP for transfer")
	defer span.End()

	if err := m.requireOwnership(ctx, userID, req.SenderAccountID); err != nil {
		return nil, err
	}
	if err := m.VerifyOtp(ctx, userID, code); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return m.Transfer(ctx, req)
}

// GetTransaction retrieves a ledger entry by its public ID.
func (m *Meridian) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return m.datasource.GetTransaction(ctx, id)
}

// GetTransactionByRef retrieves a ledger entry by its reference code.
func (m *Meridian) GetTransactionByRef(ctx context.Context, reference string) (*model.Transaction, error) {
	return m.datasource.GetTransactionByRef(ctx, reference)
}

// GetAccountTransactions lists an account's ledger entries, newest first.
func (m *Meridian) GetAccountTransactions(ctx context.Context, accountID string, limit, offset int) ([]*model.Transaction, error) {
	return m.datasource.GetTransactionsByAccount(ctx, accountID, normalizeLimit(limit), offset)
}

// GetUserTransactions lists entries touching any account the user owns.
func (m *Meridian) GetUserTransactions(ctx context.Context, userID string, limit, offset int) ([]*model.Transaction, error) {
	return m.datasource.GetTransactionsByUser(ctx, userID, normalizeLimit(limit), offset)
}

// GetTransactionsByStatus lists entries in one lifecycle status.
func (m *Meridian) GetTransactionsByStatus(ctx context.Context, status model.TransactionStatus, limit, offset int) ([]*model.Transaction, error) {
	return m.datasource.GetTransactionsByStatus(ctx, status, normalizeLimit(limit), offset)
}

func (m *Meridian) validateTransfer(req TransferRequest) error {
	if !req.Amount.IsPositive() {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "Transfer amount must be positive", nil)
	}
	if req.SenderAccountID == "" || req.ReceiverAccountID == "" {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "Sender and receiver accounts are required", nil)
	}
	if req.SenderAccountID == req.ReceiverAccountID {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "Cannot transfer to the same account", nil)
	}

	configuration, err := config.Fetch()
	if err != nil {
		return err
	}
	if configuration.Transfer.MaxAmount != "" {
		maxAmount, err := decimal.NewFromString(configuration.Transfer.MaxAmount)
		if err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Invalid max transfer amount configured", err)
		}
		if req.Amount.GreaterThan(maxAmount) {
			return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("Transfer amount exceeds the maximum of %s", maxAmount), nil)
		}
	}
	return nil
}

// requireOwnership confirms the acting user owns the account. Acting on
// another user's account is forbidden regardless of credentials.
func (m *Meridian) requireOwnership(ctx context.Context, userID, accountID string) error {
	account, err := m.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return apierror.NewAPIError(apierror.ErrForbidden, "Account does not belong to this user", nil)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
