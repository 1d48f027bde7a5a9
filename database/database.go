package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"waveorder/internal/domain/billing"
	"waveorder/internal/domain/business"
	"waveorder/internal/domain/users"
)

// Connect opens the postgres connection and migrates every domain model.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&billing.Subscription{},
		&users.User{},
		&business.Business{},
		&business.BusinessUser{},
		&billing.StripeTransaction{},
		&billing.WebhookEvent{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
