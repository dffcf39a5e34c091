package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	model2 "github.com/meridian-bank/meridian/api/model"
	"github.com/meridian-bank/meridian/model"
)

// CreateAccount opens a new account. The account number is generated
// server-side and returned in the response.
func (a Api) CreateAccount(c *gin.Context) {
	var newAccount model2.CreateAccount
	if err := c.ShouldBindJSON(&newAccount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := newAccount.ValidateCreateAccount(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	accountType, err := model.ParseAccountType(newAccount.AccountType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.service.CreateAccount(c.Request.Context(), newAccount.UserID, accountType, decimal.NewFromFloat(newAccount.OpeningBalance))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetAccount(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.service.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetAccountByNumber(c *gin.Context) {
	number, passed := c.Params.Get("number")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "number is required. pass number in the route /number/:number"})
		return
	}

	resp, err := a.service.GetAccountByNumber(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetUserAccounts(c *gin.Context) {
	userID, passed := c.Params.Get("user_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required. pass user_id in the route /users/:user_id/accounts"})
		return
	}

	resp, err := a.service.GetUserAccounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetAccountTransactions(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/transactions"})
		return
	}

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	resp, err := a.service.GetAccountTransactions(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
