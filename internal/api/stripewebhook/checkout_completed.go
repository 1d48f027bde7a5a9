package stripewebhook

import (
	"errors"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v75"
)

// handleCheckoutCompleted bridges a completed checkout into the "subscription
// created" transition. The session payload may carry the subscription only as
// an id, so the full object is always fetched from Stripe before reconciling.
func (h *Handler) handleCheckoutCompleted(session *stripeapi.CheckoutSession) error {
	if session.Mode != "" && session.Mode != stripeapi.CheckoutSessionModeSubscription {
		// One-off payment sessions are outside this engine.
		return nil
	}

	subID := ""
	if session.Subscription != nil {
		subID = session.Subscription.ID
	}
	if subID == "" {
		full, err := h.Stripe.GetCheckoutSession(session.ID)
		if err != nil {
			return fmt.Errorf("fetch expanded checkout session %s: %w", session.ID, err)
		}
		if full.Subscription != nil {
			subID = full.Subscription.ID
		}
	}
	if subID == "" {
		return errors.New("checkout session missing subscription")
	}

	sub, err := h.Stripe.GetSubscription(subID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", subID, err)
	}
	return h.handleSubscriptionCreated(sub)
}
