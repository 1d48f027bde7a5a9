package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"waveorder/internal/domain/plans"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string
	APP_URL    string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	SMTP_FROM     string
	SMTP_PASSWORD string
	SMTP_HOST     string
	SMTP_PORT     string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	APP_URL = getEnv("APP_URL", "http://localhost:3000")

	STRIPE_SECRET_KEY = mustEnv("STRIPE_SECRET_KEY")
	STRIPE_WEBHOOK_SECRET = mustEnv("STRIPE_WEBHOOK_SECRET")

	SMTP_FROM = getEnv("SMTP_FROM", "")
	SMTP_PASSWORD = getEnv("SMTP_PASSWORD", "")
	SMTP_HOST = getEnv("SMTP_HOST", "")
	SMTP_PORT = getEnv("SMTP_PORT", "587")
}

// PlanCatalog builds the price-id -> plan mapping from the environment.
// Price identifiers differ per Stripe account, so they are configuration,
// not code.
func PlanCatalog() *plans.Catalog {
	return plans.NewCatalog(map[string]plans.Pricing{
		plans.PlanPro: {
			MonthlyPriceID: mustEnv("STRIPE_PRICE_PRO_MONTHLY"),
			AnnualPriceID:  mustEnv("STRIPE_PRICE_PRO_ANNUAL"),
			MonthlyEUR:     getEnvFloat("PLAN_PRO_MONTHLY_EUR", 19),
			AnnualEUR:      getEnvFloat("PLAN_PRO_ANNUAL_EUR", 190),
		},
		plans.PlanBusiness: {
			MonthlyPriceID: mustEnv("STRIPE_PRICE_BUSINESS_MONTHLY"),
			AnnualPriceID:  mustEnv("STRIPE_PRICE_BUSINESS_ANNUAL"),
			MonthlyEUR:     getEnvFloat("PLAN_BUSINESS_MONTHLY_EUR", 49),
			AnnualEUR:      getEnvFloat("PLAN_BUSINESS_ANNUAL_EUR", 490),
		},
	})
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Fatalf("Invalid numeric value for %s: %q", key, value)
	}
	return f
}
