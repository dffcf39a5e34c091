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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

func TestAdjustBalance_Deposit(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectBegin()
	expectRowLock(mock, "acc_c", serviceAccountRow(3, "acc_c", "usr_3", "250", model.AccountStatusActive))
	mock.ExpectExec(`UPDATE meridian.accounts`).
		WithArgs("acc_c", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO meridian.transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(15))
	mock.ExpectCommit()

	recorded, err := service.AdjustBalance(context.Background(), "acc_c", decimal.NewFromInt(1000), model.TypeDeposit, "goodwill credit")
	assert.NoError(t, err)
	assert.Equal(t, model.TypeDeposit, recorded.Type)
	assert.Equal(t, model.StatusCompleted, recorded.Status)
	assert.Nil(t, recorded.SenderAccountID)
	assert.Equal(t, "acc_c", *recorded.ReceiverAccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Admin withdrawals bypass frozen status but never the non-negative balance
// invariant.
func TestAdjustBalance_WithdrawalOnFrozenAccount(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectBegin()
	expectRowLock(mock, "acc_c", serviceAccountRow(3, "acc_c", "usr_3", "250", model.AccountStatusFrozen))
	mock.ExpectExec(`UPDATE meridian.accounts`).
		WithArgs("acc_c", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO meridian.transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(16))
	mock.ExpectCommit()

	recorded, err := service.AdjustBalance(context.Background(), "acc_c", decimal.NewFromInt(200), model.TypeWithdrawal, "chargeback")
	assert.NoError(t, err)
	assert.Equal(t, "acc_c", *recorded.SenderAccountID)

	mock.ExpectBegin()
	expectRowLock(mock, "acc_c", serviceAccountRow(3, "acc_c", "usr_3", "50", model.AccountStatusFrozen))
	mock.ExpectRollback()

	_, err = service.AdjustBalance(context.Background(), "acc_c", decimal.NewFromInt(200), model.TypeWithdrawal, "chargeback")
	assert.Equal(t, apierror.ErrInsufficientFunds, apierror.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBalance_RejectsBadInput(t *testing.T) {
	service, mock := newTestService(t)

	_, err := service.AdjustBalance(context.Background(), "acc_c", decimal.NewFromInt(-5), model.TypeDeposit, "")
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))

	_, err = service.AdjustBalance(context.Background(), "acc_c", decimal.NewFromInt(5), model.TypeTransfer, "")
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReverseTransaction_SecondReversalFails(t *testing.T) {
	service, mock := newTestService(t)

	originalRow := func(status string) *sqlmock.Rows {
		return sqlmock.NewRows(serviceTransactionColumns).
			AddRow(10, "txn_1", "REF2345678", "acc_a", "acc_b", "150", "transfer", status, "rent", time.Now())
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM meridian.transactions WHERE transaction_id = \$1 FOR UPDATE`).
		WithArgs("txn_1").
		WillReturnRows(originalRow("completed"))
	expectRowLock(mock, "acc_a", serviceAccountRow(1, "acc_a", "usr_1", "350", model.AccountStatusActive))
	expectRowLock(mock, "acc_b", serviceAccountRow(2, "acc_b", "usr_2", "150", model.AccountStatusActive))
	mock.ExpectExec(`UPDATE meridian.accounts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE meridian.accounts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE meridian.transactions SET status = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO meridian.transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))
	mock.ExpectCommit()

	reversal, err := service.ReverseTransaction(context.Background(), "txn_1")
	assert.NoError(t, err)
	assert.Equal(t, model.TypeReversal, reversal.Type)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM meridian.transactions WHERE transaction_id = \$1 FOR UPDATE`).
		WithArgs("txn_1").
		WillReturnRows(originalRow("reversed"))
	mock.ExpectRollback()

	_, err = service.ReverseTransaction(context.Background(), "txn_1")
	assert.Equal(t, apierror.ErrConflict, apierror.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleAccountStatus(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectExec(`UPDATE meridian.accounts SET status = \$2`).
		WithArgs("acc_a", model.AccountStatusFrozen).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, service.ToggleAccountStatus(context.Background(), "acc_a", model.AccountStatusFrozen))
	assert.NoError(t, mock.ExpectationsWereMet())
}
