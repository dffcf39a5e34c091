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

	"github.com/gin-gonic/gin"

	model2 "github.com/meridian-bank/meridian/api/model"
	"github.com/meridian-bank/meridian/model"
)

// MakeTransfer moves funds without step-up verification. It is meant for
// trusted internal callers; customer-facing clients go through the PIN, OTP
// or authorization routes.
func (a Api) MakeTransfer(c *gin.Context) {
	var transfer model2.Transfer
	if err := c.ShouldBindJSON(&transfer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := transfer.ValidateTransfer(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	req, err := a.toTransferRequest(c.Request.Context(), transfer)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := a.service.Transfer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// TransferWithPin verifies PIN plus any enabled step-up codes in one request,
// then transfers.
func (a Api) TransferWithPin(c *gin.Context) {
	var transfer model2.TransferWithPin
	if err := c.ShouldBindJSON(&transfer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := transfer.ValidateTransferWithPin(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	req, err := a.toTransferRequest(c.Request.Context(), transfer.Transfer)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := a.service.TransferWithPin(c.Request.Context(), transfer.UserID, transfer.Pin, req, transfer.CotCode, transfer.SecureIDCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// TransferWithOtp consumes a live OTP and transfers. The code is spent even
// when the transfer fails; a retry needs a fresh one.
func (a Api) TransferWithOtp(c *gin.Context) {
	var transfer model2.TransferWithOtp
	if err := c.ShouldBindJSON(&transfer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := transfer.ValidateTransferWithOtp(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	req, err := a.toTransferRequest(c.Request.Context(), transfer.Transfer)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := a.service.VerifyOtpAndTransfer(c.Request.Context(), transfer.UserID, transfer.Code, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetTransaction(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.service.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetTransactionByRef(c *gin.Context) {
	reference, passed := c.Params.Get("reference")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required. pass reference in the route /reference/:reference"})
		return
	}

	resp, err := a.service.GetTransactionByRef(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetTransactionsByStatus(c *gin.Context) {
	status, err := model.ParseTransactionStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	resp, err := a.service.GetTransactionsByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetUserTransactions(c *gin.Context) {
	userID, passed := c.Params.Get("user_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required. pass user_id in the route /users/:user_id/transactions"})
		return
	}

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	resp, err := a.service.GetUserTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
