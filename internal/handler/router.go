package handler

import (
	"marketplace/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRouter(h *Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware())

	api := r.Group("/api/v1")
	{
		api.POST("/cron/auto-complete", CronSecretMiddleware(cfg.Server.CronSecret), h.RunAutoComplete)

		authed := api.Group("", AuthMiddleware(cfg.Server.JWTSecret))

		account := authed.Group("/account")
		{
			account.GET("/balance", h.GetBalance)
			account.GET("/transactions", h.ListTransactions)
			account.POST("/exchange", h.Exchange)
		}

		order := authed.Group("/order")
		{
			order.POST("/create", h.CreateOrder)
			order.GET("/detail", h.GetOrder)
			order.GET("/list", h.ListOrders)
			order.POST("/advance", h.AdvanceOrder)
			order.POST("/confirm", h.ConfirmOrder)
			order.POST("/cancel", h.CancelOrder)
		}

		withdrawal := authed.Group("/withdrawal")
		{
			withdrawal.POST("/request", h.RequestWithdrawal)
			withdrawal.GET("/list", h.ListWithdrawals)
		}

		authed.POST("/deposit/request", h.RequestDeposit)

		pricing := authed.Group("/pricing")
		{
			pricing.POST("/currency", h.SetCurrency)
			pricing.POST("/cost", h.SetCost)
		}

		admin := authed.Group("/admin")
		{
			admin.POST("/order/status", h.ForceOrderStatus)
			admin.POST("/withdrawal/resolve", h.ResolveWithdrawal)
			admin.POST("/deposit/resolve", h.ResolveDeposit)
			admin.GET("/setting", h.GetSetting)
			admin.POST("/setting", h.UpdateSetting)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
