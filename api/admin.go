package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/meridian-bank/meridian/api/model"
	"github.com/meridian-bank/meridian/model"
)

// AdjustBalance applies a privileged one-sided correction. The admin key on
// the route group is the only authorization; no step-up factor is checked.
func (a Api) AdjustBalance(c *gin.Context) {
	var adjustment model2.AdminAdjustment
	if err := c.ShouldBindJSON(&adjustment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := adjustment.ValidateAdminAdjustment(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	adjustmentType, err := model.ParseTransactionType(adjustment.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.service.AdjustBalance(c.Request.Context(), adjustment.AccountID, adjustment.DecimalAmount(), adjustmentType, adjustment.Narration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ReverseTransaction undoes a completed ledger entry and returns the
// compensating reversal entry.
func (a Api) ReverseTransaction(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/reverse"})
		return
	}

	resp, err := a.service.ReverseTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateAccountStatus freezes or unfreezes an account.
func (a Api) UpdateAccountStatus(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/status"})
		return
	}

	var req model2.UpdateAccountStatus
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateUpdateAccountStatus(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	status, err := model.ParseAccountStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.service.ToggleAccountStatus(c.Request.Context(), id, status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account status updated"})
}
