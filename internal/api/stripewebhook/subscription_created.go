package stripewebhook

import (
	"time"

	stripeapi "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"waveorder/internal/domain/business"
	"waveorder/internal/domain/plans"
	"waveorder/internal/domain/users"
	"waveorder/internal/infra/email"
)

// handleSubscriptionCreated runs for customer.subscription.created and for
// checkout.session.completed after the full subscription is fetched. The
// synchronous checkout flow may already have created the local row, so the
// whole transition is an idempotent upsert.
func (h *Handler) handleSubscriptionCreated(sub *stripeapi.Subscription) error {
	user, err := h.userByCustomer(customerIDOf(sub))
	if err != nil {
		return err
	}

	trialing := sub.Status == stripeapi.SubscriptionStatusTrialing

	var out *reconcileOutcome
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		out, err = h.reconcileSubscription(tx, user, sub)
		if err != nil {
			return err
		}

		userUpdates := map[string]interface{}{
			"plan":            out.sub.Plan,
			"subscription_id": out.sub.ID,
		}
		bizUpdates := map[string]interface{}{
			"subscription_plan":   out.sub.Plan,
			"subscription_status": business.StatusActive,
		}
		if trialing {
			// Preserve a trial deadline set by the trial-start flow; fill it
			// from the provider only when we have nothing.
			if user.TrialEndsAt == nil && sub.TrialEnd > 0 {
				trialEnd := time.Unix(sub.TrialEnd, 0)
				userUpdates["trial_ends_at"] = trialEnd
				bizUpdates["trial_ends_at"] = trialEnd
			}
		} else {
			userUpdates["trial_ends_at"] = nil
			userUpdates["grace_ends_at"] = nil
			bizUpdates["trial_ends_at"] = nil
			bizUpdates["grace_ends_at"] = nil
		}

		if err := tx.Model(&users.User{}).Where("id = ?", user.ID).Updates(userUpdates).Error; err != nil {
			return err
		}
		return fanOutToBusinesses(tx, user.ID, bizUpdates)
	})
	if err != nil {
		return err
	}

	h.resolveSupersededSubscription(out)

	// Trial starts are announced by the trial-start flow; the engine only
	// mails for paid activations.
	if !trialing {
		changeType := ""
		switch {
		case out.created:
			changeType = email.ChangeCreated
		default:
			changeType = plans.ChangeType(out.oldPlan, out.sub.Plan)
		}
		if changeType != "" {
			h.sendChangeEmail(user, out, changeType)
		}
	}

	h.auditTransition("subscription_created", out.oldPlan, out.sub.Plan, sub.ID)
	return nil
}
