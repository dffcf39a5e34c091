package meridian

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/meridian-bank/meridian/model"
)

// The money-movement path must emit spans through whatever tracer provider is
// installed globally, from the service entry point down to the ledger insert.
func TestTransferEmitsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	service, mock := newTestService(t)
	expectTransferCommit(mock, "500")

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderAccountID:   "acc_a",
		ReceiverAccountID: "acc_b",
		Amount:            decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	names := make(map[string]bool)
	for _, span := range recorder.Ended() {
		names[span.Name()] = true
	}
	assert.True(t, names["Recording transfer"], "service layer span missing")
	assert.True(t, names["Saving ledger entry to db"], "datasource span missing")
}

// A failed movement records the error on the span instead of silently ending
// it.
func TestTransferSpanRecordsErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	service, mock := newTestService(t)

	mock.ExpectBegin()
	expectRowLock(mock, "acc_a", serviceAccountRow(1, "acc_a", "usr_1", "10", model.AccountStatusActive))
	expectRowLock(mock, "acc_b", serviceAccountRow(2, "acc_b", "usr_2", "0", model.AccountStatusActive))
	mock.ExpectRollback()

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderAccountID:   "acc_a",
		ReceiverAccountID: "acc_b",
		Amount:            decimal.NewFromInt(100),
	})
	require.Error(t, err)

	var recorded bool
	for _, span := range recorder.Ended() {
		if span.Name() != "Recording transfer" {
			continue
		}
		for _, event := range span.Events() {
			if event.Name == "exception" {
				recorded = true
			}
		}
	}
	assert.True(t, recorded, "failed transfer must record the error on its span")
}
