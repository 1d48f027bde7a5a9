package users

import (
	"time"

	"waveorder/internal/domain/billing"
)

type User struct {
	ID    uint `gorm:"primaryKey"`
	Name  string
	Email string `gorm:"not null;uniqueIndex:idx_users_email"`
	Role  string

	StripeCustomerID *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id"`

	// Plan is a denormalized copy of the active subscription's plan,
	// STARTER when there is none.
	Plan           string `gorm:"type:varchar(20);not null;default:'STARTER'"`
	SubscriptionID *uint  `gorm:"column:subscription_id"`
	Subscription   *billing.Subscription

	TrialEndsAt *time.Time `gorm:"column:trial_ends_at"`
	GraceEndsAt *time.Time `gorm:"column:grace_ends_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
