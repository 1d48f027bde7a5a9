package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"waveorder/config"
	"waveorder/database"
	adminapi "waveorder/internal/api/admin"
	"waveorder/internal/api/stripewebhook"
	routes "waveorder/internal/app/http"
	"waveorder/internal/infra/audit"
	"waveorder/internal/infra/email"
	stripeinfra "waveorder/internal/infra/stripe"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.Connect(config.DB_URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init failed")
	}

	webhooks := stripewebhook.New(
		db,
		stripeinfra.NewClient(config.STRIPE_SECRET_KEY),
		email.NewSMTPMailer(config.SMTP_FROM, config.SMTP_PASSWORD, config.SMTP_HOST, config.SMTP_PORT),
		config.PlanCatalog(),
		audit.NewSink(logger),
		logger,
		config.STRIPE_WEBHOOK_SECRET,
		config.APP_URL,
	)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("CORS_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, webhooks, &adminapi.Handler{DB: db})

	if err := r.Run(":" + config.PORT); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
