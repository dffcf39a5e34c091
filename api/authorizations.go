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

// BeginAuthorization opens a durable multi-factor transfer attempt. Which
// factors the attempt demands is fixed from the user's enabled step-up codes
// at this moment, not negotiable later.
func (a Api) BeginAuthorization(c *gin.Context) {
	var req model2.BeginAuthorization
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateBeginAuthorization(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	transfer, err := a.toTransferRequest(c.Request.Context(), req.Transfer)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := a.service.BeginAuthorization(c.Request.Context(), req.UserID, transfer.SenderAccountID, transfer.ReceiverAccountID, transfer.Amount, transfer.Narration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetAuthorization(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.service.GetAuthorization(c.Request.Context(), id, c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitFactor presents one credential against an open attempt. A wrong code
// leaves the attempt where it was; a factor out of turn is a conflict.
func (a Api) SubmitFactor(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/factors"})
		return
	}

	var req model2.SubmitFactor
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateSubmitFactor(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.service.SubmitFactor(c.Request.Context(), id, req.UserID, model.Factor(req.Factor), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExecuteAuthorization runs the attempt's transfer. A double-submit after
// success is rejected without moving funds again.
func (a Api) ExecuteAuthorization(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/execute"})
		return
	}

	var req model2.ExecuteAuthorization
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateExecuteAuthorization(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.service.ExecuteAuthorization(c.Request.Context(), id, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a Api) CancelAuthorization(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/cancel"})
		return
	}

	var req model2.ExecuteAuthorization
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateExecuteAuthorization(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.service.CancelAuthorization(c.Request.Context(), id, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Authorization cancelled"})
}
