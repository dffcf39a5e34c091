package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/meridian-bank/meridian"
	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/database"
	"github.com/meridian-bank/meridian/model"
)

const testAdminKey = "admin-test-key"

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	err := json.NewDecoder(resp.Body).Decode(&s.Response)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// setupRouter builds the full router over a stub database and an in-process
// redis. The returned mock carries the SQL expectations for the test.
func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis:  config.RedisConfig{Dns: mr.Addr()},
		Server: config.ServerConfig{AdminKey: testAdminKey},
		Otp:    config.OtpConfig{DemoMode: true},
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	service, err := meridian.NewMeridian(&database.Datasource{Conn: db})
	require.NoError(t, err)

	return NewAPI(service).Router(), mock
}

var apiAccountColumns = []string{"id", "account_id", "user_id", "account_number", "account_type", "balance", "status", "created_at", "updated_at"}

func apiAccountRow(id int64, accountID, userID, balance string, status model.AccountStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(apiAccountColumns).
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

func expectTransferCommit(mock sqlmock.Sqlmock, senderBalance string) {
	mock.ExpectBegin()
	expectRowLock(mock, "acc_a", apiAccountRow(1, "acc_a", "usr_1", senderBalance, model.AccountStatusActive))
	expectRowLock(mock, "acc_b", apiAccountRow(2, "acc_b", "usr_2", "0", model.AccountStatusActive))
	mock.ExpectExec(`UPDATE meridian.accounts`).
		WithArgs("acc_a", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE meridian.accounts`).
		WithArgs("acc_b", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO meridian.transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()
}
