package stripewebhook

import (
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v75"

	"waveorder/internal/infra/email"
)

func (h *Handler) handleInvoicePaymentSucceeded(inv *stripeapi.Invoice) error {
	h.recordTransaction(inv, "paid")

	// Only renewal cycles drive a state refresh; the initial invoice of a new
	// subscription is covered by the created/checkout transitions.
	if inv.BillingReason != stripeapi.InvoiceBillingReasonSubscriptionCycle {
		return nil
	}
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return nil
	}

	// The invoice payload is not trusted for period bounds; the subscription
	// object is re-fetched as the authoritative source.
	sub, err := h.Stripe.GetSubscription(inv.Subscription.ID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s for renewal: %w", inv.Subscription.ID, err)
	}

	user, err := h.userByCustomer(customerIDOf(sub))
	if err != nil {
		return err
	}

	out, err := h.applySubscriptionUpdate(user, sub)
	if err != nil {
		return err
	}

	var nextBilling *time.Time
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0)
		nextBilling = &t
	}
	h.attempt("renewal email", func() error {
		return h.Mailer.SendSubscriptionChangeEmail(email.SubscriptionChangeEmail{
			To:              user.Email,
			Name:            user.Name,
			ChangeType:      email.ChangeRenewed,
			OldPlan:         out.oldPlan,
			NewPlan:         out.sub.Plan,
			BillingInterval: h.Plans.Interval(priceIDOf(sub)),
			AmountEUR:       float64(inv.AmountPaid) / 100,
			NextBillingDate: nextBilling,
		})
	})
	return nil
}

// handleInvoicePaymentFailed records the failed attempt and nudges the user.
// No subscription state changes here: Stripe's dunning drives the eventual
// paused/deleted events.
func (h *Handler) handleInvoicePaymentFailed(inv *stripeapi.Invoice) error {
	h.recordTransaction(inv, "failed")

	if inv.Customer == nil || inv.Customer.ID == "" {
		return nil
	}
	user, err := h.userByCustomer(inv.Customer.ID)
	if err != nil {
		// A failed invoice for a foreign customer is expected on a shared
		// Stripe account; nothing to escalate.
		h.Log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("payment failed for unknown customer")
		return nil
	}

	var nextRetry *time.Time
	if inv.NextPaymentAttempt > 0 {
		t := time.Unix(inv.NextPaymentAttempt, 0)
		nextRetry = &t
	}
	h.attempt("payment failed email", func() error {
		return h.Mailer.SendPaymentFailedEmail(email.PaymentFailedEmail{
			To:               user.Email,
			Name:             user.Name,
			AmountEUR:        float64(inv.AmountDue) / 100,
			NextRetryDate:    nextRetry,
			UpdatePaymentURL: h.portalURL(user),
		})
	})
	return nil
}
