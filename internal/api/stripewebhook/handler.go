package stripewebhook

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"gorm.io/gorm"

	"waveorder/internal/domain/plans"
	"waveorder/internal/infra/audit"
	"waveorder/internal/infra/email"
	stripeinfra "waveorder/internal/infra/stripe"
)

const maxPayloadBytes = 65536

// Handler is the Stripe webhook reconciliation engine. Every dependency is
// injected so tests can run it against an in-memory database and a fake
// Stripe client.
type Handler struct {
	DB     *gorm.DB
	Stripe stripeinfra.Client
	Mailer email.Mailer
	Plans  *plans.Catalog
	Audit  *audit.Sink
	Log    zerolog.Logger

	Secret string // webhook signing secret
	AppURL string // base URL for billing-portal return links

	// Now is swappable so grace-period math is testable.
	Now func() time.Time
}

func New(db *gorm.DB, client stripeinfra.Client, mailer email.Mailer, catalog *plans.Catalog, sink *audit.Sink, log zerolog.Logger, secret, appURL string) *Handler {
	return &Handler{
		DB:     db,
		Stripe: client,
		Mailer: mailer,
		Plans:  catalog,
		Audit:  sink,
		Log:    log,
		Secret: secret,
		AppURL: appURL,
		Now:    time.Now,
	}
}

// Webhook is the single inbound endpoint. Flow: verify signature, journal the
// event, dispatch by type, close the journal entry with the outcome. Any
// non-2xx response tells Stripe to redeliver later.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := readBody(c, maxPayloadBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.Log.Warn().Err(err).Msg("stripe signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	entry, err := h.journalEvent(&event, payload)
	if err != nil {
		h.Log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to journal webhook event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if err := h.dispatch(&event); err != nil {
		h.Log.Error().Err(err).
			Str("event_type", string(event.Type)).
			Str("event_id", event.ID).
			Msg("webhook processing failed")
		h.closeJournal(entry, err)
		h.Audit.Record(audit.Event{
			LogType:      "stripe_webhook",
			Severity:     "error",
			Endpoint:     "/webhook",
			Method:       http.MethodPost,
			StatusCode:   http.StatusInternalServerError,
			ErrorMessage: err.Error(),
			Metadata: map[string]interface{}{
				"event_type": string(event.Type),
				"event_id":   event.ID,
			},
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.closeJournal(entry, nil)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// dispatch decodes the payload into its typed shape once and routes it. This
// is the only layer allowed to let an error escape to the HTTP response.
func (h *Handler) dispatch(event *stripeapi.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("parse checkout session: %w", err)
		}
		return h.handleCheckoutCompleted(&session)

	case "customer.subscription.created":
		sub, err := parseSubscription(event)
		if err != nil {
			return err
		}
		return h.handleSubscriptionCreated(sub)

	case "customer.subscription.updated":
		sub, err := parseSubscription(event)
		if err != nil {
			return err
		}
		return h.handleSubscriptionUpdated(sub)

	case "customer.subscription.deleted":
		sub, err := parseSubscription(event)
		if err != nil {
			return err
		}
		return h.handleSubscriptionDeleted(sub)

	case "customer.subscription.paused":
		sub, err := parseSubscription(event)
		if err != nil {
			return err
		}
		return h.handleSubscriptionPaused(sub)

	case "customer.subscription.resumed":
		sub, err := parseSubscription(event)
		if err != nil {
			return err
		}
		return h.handleSubscriptionResumed(sub)

	case "customer.subscription.trial_will_end":
		sub, err := parseSubscription(event)
		if err != nil {
			return err
		}
		return h.handleTrialWillEnd(sub)

	case "invoice.payment_succeeded":
		inv, err := parseInvoice(event)
		if err != nil {
			return err
		}
		return h.handleInvoicePaymentSucceeded(inv)

	case "invoice.payment_failed":
		inv, err := parseInvoice(event)
		if err != nil {
			return err
		}
		return h.handleInvoicePaymentFailed(inv)

	default:
		// Acknowledge unknown events so Stripe stops redelivering them,
		// but leave a trace.
		h.Log.Warn().Str("event_type", string(event.Type)).Msg("unhandled stripe event type")
		return nil
	}
}

func parseSubscription(event *stripeapi.Event) (*stripeapi.Subscription, error) {
	var sub stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("parse subscription: %w", err)
	}
	return &sub, nil
}

func parseInvoice(event *stripeapi.Event) (*stripeapi.Invoice, error) {
	var inv stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return nil, fmt.Errorf("parse invoice: %w", err)
	}
	return &inv, nil
}

func readBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
