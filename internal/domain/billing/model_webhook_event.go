package billing

import "time"

// WebhookEvent is the journal row written for every accepted Stripe event
// delivery, before any business logic runs. Redeliveries get their own rows;
// idempotency lives at the Subscription level, not here.
type WebhookEvent struct {
	ID             uint   `gorm:"primaryKey"`
	EventType      string `gorm:"not null;index:idx_webhook_events_event_type"`
	StripeObjectID string `gorm:"column:stripe_object_id"`
	Payload        string `gorm:"type:text"`
	Processed      bool   `gorm:"not null;default:false"`
	ErrorMessage   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
