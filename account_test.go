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

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

func TestCreateAccount(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery("INSERT INTO meridian.accounts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	account, err := service.CreateAccount(context.Background(), "usr_1", model.AccountTypeSavings, decimal.Zero)
	assert.NoError(t, err)
	assert.Contains(t, account.AccountID, "acc_")
	assert.Len(t, account.Number, 10)
	assert.Equal(t, model.AccountStatusActive, account.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A colliding account number is drawn again rather than surfaced.
func TestCreateAccount_RegeneratesNumberOnCollision(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery("INSERT INTO meridian.accounts").
		WillReturnError(&pq.Error{Code: "23505", Message: "unique_violation"})
	mock.ExpectQuery("INSERT INTO meridian.accounts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	account, err := service.CreateAccount(context.Background(), "usr_1", model.AccountTypeCurrent, decimal.NewFromInt(100))
	assert.NoError(t, err)
	assert.NotEmpty(t, account.Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_RejectsBadInput(t *testing.T) {
	service, mock := newTestService(t)

	_, err := service.CreateAccount(context.Background(), "", model.AccountTypeSavings, decimal.Zero)
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))

	_, err = service.CreateAccount(context.Background(), "usr_1", model.AccountTypeSavings, decimal.NewFromInt(-1))
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBalance(t *testing.T) {
	service, mock := newTestService(t)

	expectAccountLookup(mock, "acc_a", serviceAccountRow(1, "acc_a", "usr_1", "123.45", model.AccountStatusActive))

	balance, err := service.GetBalance(context.Background(), "acc_a")
	assert.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromFloat(123.45)))

	expectAccountLookup(mock, "acc_missing", sqlmock.NewRows(serviceAccountColumns))
	_, err = service.GetBalance(context.Background(), "acc_missing")
	assert.Equal(t, apierror.ErrNotFound, apierror.CodeOf(err))
}
