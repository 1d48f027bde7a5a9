package stripewebhook

import (
	stripeapi "github.com/stripe/stripe-go/v75"

	"waveorder/internal/domain/billing"
)

// journalEvent records the delivery before any business logic runs. Every
// delivery gets its own row, redeliveries included; the journal is an audit
// trail, not the idempotency mechanism.
func (h *Handler) journalEvent(event *stripeapi.Event, payload []byte) (*billing.WebhookEvent, error) {
	entry := &billing.WebhookEvent{
		EventType:      string(event.Type),
		StripeObjectID: eventObjectID(event),
		Payload:        string(payload),
	}
	if err := h.DB.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// closeJournal marks the entry processed, or stores the failure and leaves
// processed=false so the row shows up in audit queries.
func (h *Handler) closeJournal(entry *billing.WebhookEvent, procErr error) {
	updates := map[string]interface{}{"processed": true}
	if procErr != nil {
		msg := procErr.Error()
		updates = map[string]interface{}{"processed": false, "error_message": msg}
	}
	if err := h.DB.Model(entry).Updates(updates).Error; err != nil {
		h.Log.Error().Err(err).Uint("journal_id", entry.ID).Msg("failed to update journal entry")
	}
}

func eventObjectID(event *stripeapi.Event) string {
	if event.Data == nil || event.Data.Object == nil {
		return ""
	}
	id, _ := event.Data.Object["id"].(string)
	return id
}
