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
	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/model"
)

// RequestOtp issues a fresh one-time password for the user, voiding any prior
// unused one. The plaintext code is echoed in the response only when demo mode
// is on; otherwise delivery is out of band.
func (a Api) RequestOtp(c *gin.Context) {
	var req model2.RequestOtp
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateRequestOtp(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	otp, err := a.service.IssueOtp(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"otp_id":     otp.OtpID,
		"expires_at": otp.ExpiresAt,
	}
	if conf, err := config.Fetch(); err == nil && conf.Otp.DemoMode {
		resp["code"] = otp.Code
	}
	c.JSON(http.StatusCreated, resp)
}

func (a Api) SetPin(c *gin.Context) {
	var req model2.SetPin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateSetPin(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.service.SetPin(c.Request.Context(), req.UserID, req.Pin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "PIN set"})
}

func (a Api) ChangePin(c *gin.Context) {
	var req model2.ChangePin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateChangePin(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.service.ChangePin(c.Request.Context(), req.UserID, req.CurrentPin, req.NewPin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "PIN changed"})
}

func (a Api) SetStepUpCode(c *gin.Context) {
	var req model2.SetStepUpCode
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateSetStepUpCode(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	kind, err := model.ParseStepUpKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.service.SetStepUpCode(c.Request.Context(), req.UserID, kind, req.Code, req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Step-up code set"})
}
