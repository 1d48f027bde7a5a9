package stripewebhook

import (
	"net/http"

	"waveorder/internal/domain/plans"
	"waveorder/internal/domain/users"
	"waveorder/internal/infra/audit"
	"waveorder/internal/infra/email"
)

// attempt runs a non-critical side effect. Failures are logged and never
// propagate: local subscription state is the source of truth for
// entitlements, notifications and provider cleanup are best-effort.
func (h *Handler) attempt(op string, fn func() error) {
	if err := fn(); err != nil {
		h.Log.Warn().Err(err).Str("op", op).Msg("side effect failed")
	}
}

// resolveSupersededSubscription cancels the provider subscription a user just
// moved away from. By now the local row already points at the new one, so a
// failed cancel leaves only a stale provider object to clean up manually.
func (h *Handler) resolveSupersededSubscription(out *reconcileOutcome) {
	if out == nil || out.supersededID == "" {
		return
	}
	h.attempt("cancel superseded subscription", func() error {
		h.Log.Info().
			Str("old_subscription_id", out.supersededID).
			Str("new_subscription_id", out.sub.StripeSubscriptionID).
			Msg("canceling superseded stripe subscription")
		return h.Stripe.CancelSubscriptionNow(out.supersededID)
	})
}

func (h *Handler) sendChangeEmail(user *users.User, out *reconcileOutcome, changeType string) {
	h.attempt(changeType+" email", func() error {
		priceID := out.sub.StripePriceID
		return h.Mailer.SendSubscriptionChangeEmail(email.SubscriptionChangeEmail{
			To:              user.Email,
			Name:            user.Name,
			ChangeType:      changeType,
			OldPlan:         out.oldPlan,
			NewPlan:         out.sub.Plan,
			BillingInterval: h.Plans.Interval(priceID),
			AmountEUR:       h.Plans.AmountFor(priceID),
			NextBillingDate: out.sub.CurrentPeriodEnd,
		})
	})
}

// portalURL creates a billing-portal session for payment-fix links.
// Best-effort: emails go out without a link when the portal call fails.
func (h *Handler) portalURL(user *users.User) string {
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return ""
	}
	url, err := h.Stripe.CreateBillingPortalSession(*user.StripeCustomerID, h.AppURL+"/account/billing")
	if err != nil {
		h.Log.Warn().Err(err).Uint("user_id", user.ID).Msg("could not create billing portal session")
		return ""
	}
	return url
}

func (h *Handler) auditTransition(transition, oldPlan, newPlan, stripeSubscriptionID string) {
	h.Audit.Record(audit.Event{
		LogType:    "subscription_transition",
		Severity:   "info",
		Endpoint:   "/webhook",
		Method:     http.MethodPost,
		StatusCode: http.StatusOK,
		Metadata: map[string]interface{}{
			"transition":             transition,
			"old_plan":               oldPlan,
			"new_plan":               newPlan,
			"change":                 plans.ChangeType(oldPlan, newPlan),
			"stripe_subscription_id": stripeSubscriptionID,
		},
	})
}
