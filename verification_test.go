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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

func pinRow(t *testing.T, pin string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "pin_hash", "created_at", "updated_at"}).
		AddRow(1, "usr_1", string(hash), now, now)
}

func stepUpRow(t *testing.T, kind model.StepUpKind, code string, enabled bool) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "kind", "code_hash", "enabled", "created_at", "updated_at"}).
		AddRow(1, "usr_1", kind, string(hash), enabled, now, now)
}

func TestSetPin_RejectsMalformedPin(t *testing.T) {
	service, mock := newTestService(t)

	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(service.SetPin(context.Background(), "usr_1", "12a4")))
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(service.SetPin(context.Background(), "usr_1", "12345")))
	assert.NoError(t, mock.ExpectationsWereMet(), "a malformed PIN must never reach the store")
}

func TestSetPin_StoresHashNotPlaintext(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectExec("INSERT INTO meridian.user_pins").
		WithArgs("usr_1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, service.SetPin(context.Background(), "usr_1", "1234"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPin(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM meridian.user_pins`).
		WithArgs("usr_1").
		WillReturnRows(pinRow(t, "1234"))
	assert.NoError(t, service.VerifyPin(context.Background(), "usr_1", "1234"))

	mock.ExpectQuery(`SELECT (.+) FROM meridian.user_pins`).
		WithArgs("usr_1").
		WillReturnRows(pinRow(t, "1234"))
	err := service.VerifyPin(context.Background(), "usr_1", "9999")
	assert.Equal(t, apierror.ErrUnauthorized, apierror.CodeOf(err))
	assert.EqualError(t, err, "UNAUTHORIZED: Invalid credential")
}

// A user without a PIN gets the same generic answer as a wrong PIN.
func TestVerifyPin_NoPinSet(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM meridian.user_pins`).
		WithArgs("usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "pin_hash", "created_at", "updated_at"}))

	err := service.VerifyPin(context.Background(), "usr_1", "1234")
	assert.Equal(t, apierror.ErrUnauthorized, apierror.CodeOf(err))
	assert.EqualError(t, err, "UNAUTHORIZED: Invalid credential")
}

func TestChangePin_RequiresCurrentPin(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM meridian.user_pins`).
		WithArgs("usr_1").
		WillReturnRows(pinRow(t, "1234"))

	err := service.ChangePin(context.Background(), "usr_1", "0000", "5678")
	assert.Equal(t, apierror.ErrUnauthorized, apierror.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "wrong current PIN must not update anything")
}

func TestVerifyStepUpCode(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM meridian.stepup_codes`).
		WithArgs("usr_1", model.StepUpCot).
		WillReturnRows(stepUpRow(t, model.StepUpCot, "777888", true))
	assert.NoError(t, service.VerifyStepUpCode(context.Background(), "usr_1", model.StepUpCot, "777888"))

	mock.ExpectQuery(`SELECT (.+) FROM meridian.stepup_codes`).
		WithArgs("usr_1", model.StepUpCot).
		WillReturnRows(stepUpRow(t, model.StepUpCot, "777888", false))
	err := service.VerifyStepUpCode(context.Background(), "usr_1", model.StepUpCot, "777888")
	assert.Equal(t, apierror.ErrUnauthorized, apierror.CodeOf(err), "a disabled code must not verify")
}

func TestIssueOtp(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE meridian.otp_codes SET used = true WHERE user_id = \$1 AND used = false`).
		WithArgs("usr_1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO meridian.otp_codes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	otp, err := service.IssueOtp(context.Background(), "usr_1")
	assert.NoError(t, err)
	assert.NoError(t, validateNumericCode(otp.Code, otpCodeLength))
	assert.WithinDuration(t, time.Now().Add(model.OtpTTL), otp.ExpiresAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The correct code verifies once; the identical code presented again finds no
// live row.
func TestVerifyOtp_SingleUse(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery(`UPDATE meridian.otp_codes SET used = true`).
		WithArgs("usr_1", "123456").
		WillReturnRows(sqlmock.NewRows([]string{"otp_id"}).AddRow("otp_1"))
	assert.NoError(t, service.VerifyOtp(context.Background(), "usr_1", "123456"))

	mock.ExpectQuery(`UPDATE meridian.otp_codes SET used = true`).
		WithArgs("usr_1", "123456").
		WillReturnRows(sqlmock.NewRows([]string{"otp_id"}))
	err := service.VerifyOtp(context.Background(), "usr_1", "123456")
	assert.Equal(t, apierror.ErrUnauthorized, apierror.CodeOf(err))
	assert.EqualError(t, err, "UNAUTHORIZED: Invalid credential")
}

func TestRandomNumericCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := randomNumericCode(otpCodeLength)
		assert.NoError(t, err)
		assert.NoError(t, validateNumericCode(code, otpCodeLength))
		seen[code] = true
	}
	assert.Greater(t, len(seen), 150, "codes should be well distributed")
}
