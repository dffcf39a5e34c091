/*
Copyright 2026 Meridian Bank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package meridian

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

var adminTracer = otel.Tracer("meridian.admin")

// AdjustBalance applies a privileged one-sided correction to an account: a
// deposit credits it, a withdrawal debits it. No step-up factor is required;
// gating the caller as an admin happens at the API boundary. Adjustments
// bypass frozen status so operators can correct frozen accounts, but a
// withdrawal can never drive the balance negative.
func (m *Meridian) AdjustBalance(ctx context.Context, accountID string, amount decimal.Decimal, adjustmentType model.TransactionType, narration string) (*model.Transaction, error) {
	ctx, span := adminTracer.Start(ctx, "AdjustBalance")
	defer span.End()

	if !amount.IsPositive() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Adjustment amount must be positive", nil)
	}

	txn := &model.Transaction{
		Amount:    amount,
		Type:      adjustmentType,
		Narration: narration,
	}
	switch adjustmentType {
	case model.TypeDeposit:
		txn.ReceiverAccountID = &accountID
	case model.TypeWithdrawal:
		txn.SenderAccountID = &accountID
	default:
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Adjustment type must be deposit or withdrawal", nil)
	}

	var recorded *model.Transaction
	err := withRetry(ctx, func() error {
		var execErr error
		recorded, execErr = m.datasource.ApplyAdjustment(ctx, txn, true)
		return execErr
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.AddEvent("Adjustment applied", trace.WithAttributes(
		attribute.String("account.id", accountID),
		attribute.String("transaction.id", recorded.TransactionID),
	))
	return recorded, nil
}

// ReverseTransaction undoes a completed ledger entry: the original flips to
// reversed and a compensating reversal entry is recorded in the same commit.
// Reversing the same entry twice fails the second time.
func (m *Meridian) ReverseTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	ctx, span := adminTracer.Start(ctx, "ReverseTransaction")
	defer span.End()

	var reversal *model.Transaction
	err := withRetry(ctx, func() error {
		var execErr error
		reversal, execErr = m.datasource.ReverseTransaction(ctx, transactionID)
		return execErr
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.AddEvent("Transaction reversed", trace.WithAttributes(attribute.String("transaction.id", transactionID)))
	return reversal, nil
}

// ToggleAccountStatus freezes or unfreezes an account. No ledger entry is
// written; while frozen the account blocks debits but still accepts credits.
func (m *Meridian) ToggleAccountStatus(ctx context.Context, accountID string, status model.AccountStatus) error {
	return m.datasource.UpdateAccountStatus(ctx, accountID, status)
}
