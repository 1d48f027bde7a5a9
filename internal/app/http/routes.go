package routes

import (
	"github.com/gin-gonic/gin"

	adminapi "waveorder/internal/api/admin"
	"waveorder/internal/api/stripewebhook"
	"waveorder/internal/app/http/middleware"
)

func RegisterRoutes(r *gin.Engine, webhooks *stripewebhook.Handler, admin *adminapi.Handler) {
	// Raw body route: no middleware may touch the payload or signature
	// verification breaks.
	r.POST("/webhook", webhooks.Webhook)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	adminGroup.GET("/webhook-events", admin.ListWebhookEvents)
	adminGroup.GET("/transactions", admin.ListTransactions)
}
