package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"waveorder/internal/domain/billing"
)

// Handler exposes read-only inspection of the webhook journal and the
// transaction ledger for support/debugging.
type Handler struct {
	DB *gorm.DB
}

type WebhookEventView struct {
	ID             uint      `json:"id"`
	EventType      string    `json:"event_type"`
	StripeObjectID string    `json:"stripe_object_id,omitempty"`
	Processed      bool      `json:"processed"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type TransactionView struct {
	ID                   uint      `json:"id"`
	UserID               *uint     `json:"user_id,omitempty"`
	StripeInvoiceID      string    `json:"stripe_invoice_id"`
	StripeSubscriptionID *string   `json:"stripe_subscription_id,omitempty"`
	Plan                 *string   `json:"plan,omitempty"`
	AmountEUR            float64   `json:"amount_eur"`
	Currency             string    `json:"currency"`
	Status               string    `json:"status"`
	BillingReason        string    `json:"billing_reason,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// ListWebhookEvents returns recent journal entries, newest first.
// ?failed=true narrows to entries that never processed successfully.
func (h *Handler) ListWebhookEvents(c *gin.Context) {
	q := h.DB.Model(&billing.WebhookEvent{}).Order("created_at DESC").Limit(100)
	if c.Query("failed") == "true" {
		q = q.Where("processed = ?", false)
	}

	var events []billing.WebhookEvent
	if err := q.Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load webhook events"})
		return
	}

	views := make([]WebhookEventView, 0, len(events))
	for _, e := range events {
		views = append(views, WebhookEventView{
			ID:             e.ID,
			EventType:      e.EventType,
			StripeObjectID: e.StripeObjectID,
			Processed:      e.Processed,
			ErrorMessage:   e.ErrorMessage,
			CreatedAt:      e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, views)
}

// ListTransactions returns the billing ledger, newest first.
func (h *Handler) ListTransactions(c *gin.Context) {
	var txns []billing.StripeTransaction
	if err := h.DB.Order("created_at DESC").Limit(100).Find(&txns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions"})
		return
	}

	views := make([]TransactionView, 0, len(txns))
	for _, t := range txns {
		views = append(views, TransactionView{
			ID:                   t.ID,
			UserID:               t.UserID,
			StripeInvoiceID:      t.StripeInvoiceID,
			StripeSubscriptionID: t.StripeSubscriptionID,
			Plan:                 t.Plan,
			AmountEUR:            t.AmountEUR,
			Currency:             t.Currency,
			Status:               t.Status,
			BillingReason:        t.BillingReason,
			CreatedAt:            t.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, views)
}
