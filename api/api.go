package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/meridian-bank/meridian"
	"github.com/meridian-bank/meridian/api/middleware"
	model2 "github.com/meridian-bank/meridian/api/model"
	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/internal/apierror"
)

type Api struct {
	service *meridian.Meridian
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/accounts", a.CreateAccount)
	router.GET("/accounts/:id", a.GetAccount)
	router.GET("/accounts/number/:number", a.GetAccountByNumber)
	router.GET("/accounts/:id/transactions", a.GetAccountTransactions)
	router.GET("/users/:user_id/accounts", a.GetUserAccounts)
	router.GET("/users/:user_id/transactions", a.GetUserTransactions)

	router.POST("/transfers", a.MakeTransfer)
	router.POST("/transfers/pin", a.TransferWithPin)
	router.POST("/transfers/otp", a.TransferWithOtp)
	router.GET("/transactions/:id", a.GetTransaction)
	router.GET("/transactions/reference/:reference", a.GetTransactionByRef)
	router.GET("/transactions", a.GetTransactionsByStatus)

	router.POST("/otp", a.RequestOtp)
	router.POST("/pins", a.SetPin)
	router.PUT("/pins", a.ChangePin)
	router.POST("/stepup-codes", a.SetStepUpCode)

	router.POST("/authorizations", a.BeginAuthorization)
	router.GET("/authorizations/:id", a.GetAuthorization)
	router.POST("/authorizations/:id/factors", a.SubmitFactor)
	router.POST("/authorizations/:id/execute", a.ExecuteAuthorization)
	router.POST("/authorizations/:id/cancel", a.CancelAuthorization)

	admin := router.Group("/admin", middleware.AdminKeyAuthMiddleware())
	admin.POST("/adjustments", a.AdjustBalance)
	admin.POST("/transactions/:id/reverse", a.ReverseTransaction)
	admin.PUT("/accounts/:id/status", a.UpdateAccountStatus)

	return a.router
}

func NewAPI(service *meridian.Meridian) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware("meridian"))
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{service: service, router: r}
}

// respondError translates a service failure into an HTTP response. The typed
// code picks the status; the message is safe to show the caller.
func respondError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)
	if apiErr, ok := err.(apierror.APIError); ok {
		c.JSON(status, gin.H{"error": apiErr.Message})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// toTransferRequest resolves the receiver when the client named it by account
// number instead of ID.
func (a Api) toTransferRequest(ctx context.Context, t model2.Transfer) (meridian.TransferRequest, error) {
	receiverID := t.ReceiverAccountID
	if receiverID == "" {
		account, err := a.service.GetAccountByNumber(ctx, t.ReceiverAccountNumber)
		if err != nil {
			return meridian.TransferRequest{}, err
		}
		receiverID = account.AccountID
	}
	return meridian.TransferRequest{
		SenderAccountID:   t.SenderAccountID,
		ReceiverAccountID: receiverID,
		Amount:            t.DecimalAmount(),
		Narration:         t.Narration,
	}, nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
