package billing

import "time"

// Subscription is the local, authoritative mirror of a Stripe subscription.
// Rows are never hard-deleted; canceled subscriptions stay around with
// Status = "canceled".
type Subscription struct {
	ID                   uint   `gorm:"primaryKey"`
	StripeSubscriptionID string `gorm:"column:stripe_subscription_id;not null;uniqueIndex:idx_subscriptions_stripe_subscription_id"`
	Status               string `gorm:"not null"`
	StripePriceID        string `gorm:"column:stripe_price_id"`
	Plan                 string `gorm:"type:varchar(20);not null;default:'STARTER'"`
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
	CanceledAt           *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
