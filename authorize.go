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

var authTracer = otel.Tracer("meridian.authorizations")

// BeginAuthorization opens a durable multi-factor transfer attempt. The
// transfer details are validated structurally up front; which factors the
// attempt will demand is fixed here from the user's enabled step-up codes, so
// a client cannot negotiate them down later.
func (m *Meridian) BeginAuthorization(ctx context.Context, userID, senderAccountID, receiverAccountID string, amount decimal.Decimal, narration string) (*model.TransferAuthorization, error) {
	ctx, span := authTracer.Start(ctx, "BeginAuthorization")
	defer span.End()

	if err := m.validateTransfer(TransferRequest{
		SenderAccountID:   senderAccountID,
		ReceiverAccountID: receiverAccountID,
		Amount:            amount,
	}); err != nil {
		return nil, err
	}
	if err := m.requireOwnership(ctx, userID, senderAccountID); err != nil {
		return nil, err
	}
	if _, err := m.datasource.GetAccountByID(ctx, receiverAccountID); err != nil {
		return nil, err
	}

	enabled, err := m.datasource.GetEnabledStepUpKinds(ctx, userID)
	if err != nil {
		return nil, err
	}

	auth := &model.TransferAuthorization{
		UserID:            userID,
		SenderAccountID:   senderAccountID,
		ReceiverAccountID: receiverAccountID,
		Amount:            amount,
		Narration:         narration,
		State:             model.AuthCollecting,
		CotRequired:       enabled[model.StepUpCot],
		SecureIDRequired:  enabled[model.StepUpSecureID],
	}
	if err := auth.Begin(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to start authorization", err)
	}
	created, err := m.datasource.CreateAuthorization(ctx, auth)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.AddEvent("Authorization opened", trace.WithAttributes(attribute.String("authorization.id", created.AuthorizationID)))
	return created, nil
}

// SubmitFactor verifies one credential against an attempt and advances it.
// A wrong code leaves the attempt exactly where it was and reports a generic
// invalid credential; a factor submitted out of turn is a conflict. Two
// racing submissions of the same factor advance the attempt only once.
func (m *Meridian) SubmitFactor(ctx context.Context, authorizationID, userID string, factor model.Factor, code string) (*model.TransferAuthorization, error) {
	ctx, span := authTracer.Start(ctx, "SubmitFactor")
	defer span.End()

	auth, err := m.getOwnedAuthorization(ctx, authorizationID, userID)
	if err != nil {
		return nil, err
	}

	awaited, ok := auth.AwaitedFactor()
	if !ok || awaited != factor {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "Authorization is not awaiting this factor", model.ErrWrongFactor)
	}

	switch factor {
	case model.FactorPin:
		err = m.VerifyPin(ctx, userID, code)
	case model.FactorCot:
		err = m.VerifyStepUpCode(ctx, userID, model.StepUpCot, code)
	case model.FactorSecureID:
		err = m.VerifyStepUpCode(ctx, userID, model.StepUpSecureID, code)
	default:
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Unknown factor", nil)
	}
	if err != nil {
		return nil, err
	}

	from := auth.State
	if err := auth.Advance(factor); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "Authorization is not awaiting this factor", err)
	}
	if err := m.datasource.AdvanceAuthorization(ctx, auth.AuthorizationID, from, auth.State); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.AddEvent("Factor accepted", trace.WithAttributes(attribute.String("authorization.state", string(auth.State))))
	return auth, nil
}

// ExecuteAuthorization runs the attempt's transfer. The underlying claim
// moves the attempt from authorized to executed exactly once, so a
// double-submit after success is rejected without moving funds. If the
// transfer fails for a business reason the attempt stays authorized; the
// funds state may have changed since authorization, and the caller may retry
// or cancel.
func (m *Meridian) ExecuteAuthorization(ctx context.Context, authorizationID, userID string) (*model.Transaction, error) {
	ctx, span := authTracer.Start(ctx, "ExecuteAuthorization")
	defer span.End()

	if _, err := m.getOwnedAuthorization(ctx, authorizationID, userID); err != nil {
		return nil, err
	}

	var recorded *model.Transaction
	err := withRetry(ctx, func() error {
		var execErr error
		recorded, execErr = m.datasource.ExecuteAuthorizedTransfer(ctx, authorizationID)
		return execErr
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.AddEvent("Authorized transfer executed", trace.WithAttributes(attribute.String("transaction.id", recorded.TransactionID)))
	return recorded, nil
}

// CancelAuthorization abandons an attempt. Terminal attempts are unaffected.
func (m *Meridian) CancelAuthorization(ctx context.Context, authorizationID, userID string) error {
	if _, err := m.getOwnedAuthorization(ctx, authorizationID, userID); err != nil {
		return err
	}
	return m.datasource.FailAuthorization(ctx, authorizationID)
}

// GetAuthorization retrieves an attempt for its owner.
func (m *Meridian) GetAuthorization(ctx context.Context, authorizationID, userID string) (*model.TransferAuthorization, error) {
	return m.getOwnedAuthorization(ctx, authorizationID, userID)
}

func (m *Meridian) getOwnedAuthorization(ctx context.Context, authorizationID, userID string) (*model.TransferAuthorization, error) {
	auth, err := m.datasource.GetAuthorization(ctx, authorizationID)
	if err != nil {
		return nil, err
	}
	if auth.UserID != userID {
		return nil, apierror.NewAPIError(apierror.ErrForbidden, "Authorization does not belong to this user", nil)
	}
	return auth, nil
}
