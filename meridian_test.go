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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/database"
	"github.com/meridian-bank/meridian/model"
)

// newTestService wires the service over a stub database and an in-process
// redis. The returned mock carries the SQL expectations for the test.
func newTestService(t *testing.T) (*Meridian, sqlmock.Sqlmock) {
	t.Helper()

	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	service, err := NewMeridian(&database.Datasource{Conn: db})
	require.NoError(t, err)
	return service, mock
}

var serviceAccountColumns = []string{"id", "account_id", "user_id", "account_number", "account_type", "balance", "status", "created_at", "updated_at"}

var serviceTransactionColumns = []string{"id", "transaction_id", "reference_code", "sender_account_id", "receiver_account_id", "amount", "transaction_type", "status", "narration", "created_at"}

var serviceAuthorizationColumns = []string{"id", "authorization_id", "user_id", "sender_account_id", "receiver_account_id", "amount", "narration", "state", "cot_required", "secure_id_required", "transaction_id", "created_at", "updated_at"}

func serviceAccountRow(id int64, accountID, userID, balance string, status model.AccountStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(serviceAccountColumns).
		AddRow(id, accountID, userID, "2045678901", "savings", balance, status, now, now)
}

func expectAccountLookup(mock sqlmock.Sqlmock, accountID string, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT (.+) FROM meridian.accounts WHERE account_id = \$1`).
		WithArgs(accountID).
		WillReturnRows(rows)
}

func expectRowLock(mock sqlmock.Sqlmock, accountID string, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT (.+) FROM meridian.accounts WHERE account_id = \$1 FOR UPDATE`).
		WithArgs(accountID).
		WillReturnRows(rows)
}
