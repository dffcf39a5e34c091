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

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	model2 "github.com/meridian-bank/meridian/api/model"
	"github.com/meridian-bank/meridian/internal/request"
	"github.com/meridian-bank/meridian/model"
)

func TestMakeTransfer(t *testing.T) {
	router, mock := setupRouter(t)

	expectTransferCommit(mock, "500")

	payload, _ := request.ToJsonReq(&model2.Transfer{
		SenderAccountID:   "acc_a",
		ReceiverAccountID: "acc_b",
		Amount:            100,
		Narration:         "rent",
	})
	var response model.Transaction
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &response,
		Method:   "POST",
		Route:    "/transfers",
		Router:   router,
	})
	if err != nil {
		t.Error(err)
		return
	}
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, model.StatusCompleted, response.Status)
	assert.NotEmpty(t, response.Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMakeTransfer_BadPayload(t *testing.T) {
	router, mock := setupRouter(t)

	tests := []struct {
		name    string
		payload model2.Transfer
	}{
		{
			name:    "No receiver at all",
			payload: model2.Transfer{SenderAccountID: "acc_a", Amount: 100},
		},
		{
			name: "Both receiver ID and number",
			payload: model2.Transfer{
				SenderAccountID:       "acc_a",
				ReceiverAccountID:     "acc_b",
				ReceiverAccountNumber: "2045678901",
				Amount:                100,
			},
		},
		{
			name:    "Zero amount",
			payload: model2.Transfer{SenderAccountID: "acc_a", ReceiverAccountID: "acc_b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, _ := request.ToJsonReq(&tt.payload)
			var response map[string]interface{}
			resp, _ := SetUpTestRequest(TestRequest{
				Payload:  payload,
				Response: &response,
				Method:   "POST",
				Route:    "/transfers",
				Router:   router,
			})
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet(), "rejected payloads must not touch the store")
}

func TestMakeTransfer_InsufficientFunds(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectBegin()
	expectRowLock(mock, "acc_a", apiAccountRow(1, "acc_a", "usr_1", "50", model.AccountStatusActive))
	expectRowLock(mock, "acc_b", apiAccountRow(2, "acc_b", "usr_2", "0", model.AccountStatusActive))
	mock.ExpectRollback()

	payload, _ := request.ToJsonReq(&model2.Transfer{
		SenderAccountID:   "acc_a",
		ReceiverAccountID: "acc_b",
		Amount:            100,
	})
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &response,
		Method:   "POST",
		Route:    "/transfers",
		Router:   router,
	})
	if err != nil {
		t.Error(err)
		return
	}
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A wrong PIN answers 401 with the same generic message as any other failed
// credential.
func TestTransferWithPin_WrongPin(t *testing.T) {
	router, mock := setupRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)

	expectAccountLookup(mock, "acc_a", apiAccountRow(1, "acc_a", "usr_1", "500", model.AccountStatusActive))
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM meridian.user_pins WHERE user_id = \$1`).
		WithArgs("usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "pin_hash", "created_at", "updated_at"}).
			AddRow(1, "usr_1", string(hash), now, now))

	payload, _ := request.ToJsonReq(&model2.TransferWithPin{
		Transfer: model2.Transfer{
			SenderAccountID:   "acc_a",
			ReceiverAccountID: "acc_b",
			Amount:            100,
		},
		UserID: "usr_1",
		Pin:    "9999",
	})
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &response,
		Method:   "POST",
		Route:    "/transfers/pin",
		Router:   router,
	})
	if err != nil {
		t.Error(err)
		return
	}
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Invalid credential", response["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferWithOtp(t *testing.T) {
	router, mock := setupRouter(t)

	expectAccountLookup(mock, "acc_a", apiAccountRow(1, "acc_a", "usr_1", "500", model.AccountStatusActive))
	mock.ExpectQuery(`UPDATE meridian.otp_codes SET used = true`).
		WithArgs("usr_1", "483920").
		WillReturnRows(sqlmock.NewRows([]string{"otp_id"}).AddRow("otp_1"))
	expectTransferCommit(mock, "500")

	payload, _ := request.ToJsonReq(&model2.TransferWithOtp{
		Transfer: model2.Transfer{
			SenderAccountID:   "acc_a",
			ReceiverAccountID: "acc_b",
			Amount:            100,
		},
		UserID: "usr_1",
		Code:   "483920",
	})
	var response model.Transaction
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &response,
		Method:   "POST",
		Route:    "/transfers/otp",
		Router:   router,
	})
	if err != nil {
		t.Error(err)
		return
	}
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, model.StatusCompleted, response.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTransactionsByStatus_UnknownStatus(t *testing.T) {
	router, mock := setupRouter(t)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "GET",
		Route:    "/transactions?status=vanished",
		Router:   router,
	})
	if err != nil {
		t.Error(err)
		return
	}
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
