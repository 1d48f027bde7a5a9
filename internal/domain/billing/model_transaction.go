package billing

import "time"

// StripeTransaction is one billing-history row per Stripe invoice,
// deduplicated by invoice id. It is an append-only ledger, never
// authoritative for subscription state.
type StripeTransaction struct {
	ID                   uint   `gorm:"primaryKey"`
	UserID               *uint  `gorm:"index:idx_stripe_transactions_user_id"`
	StripeInvoiceID      string `gorm:"column:stripe_invoice_id;not null;uniqueIndex:idx_stripe_transactions_invoice_id"`
	StripeSubscriptionID *string
	Plan                 *string
	AmountEUR            float64
	Currency             string
	Status               string // "paid" | "failed"
	BillingReason        string
	InvoiceURL           *string

	CreatedAt time.Time
}
