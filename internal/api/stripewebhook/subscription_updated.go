package stripewebhook

import (
	stripeapi "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"waveorder/internal/domain/business"
	"waveorder/internal/domain/plans"
	"waveorder/internal/domain/users"
	"waveorder/internal/infra/email"
)

func (h *Handler) handleSubscriptionUpdated(sub *stripeapi.Subscription) error {
	user, err := h.userByCustomer(customerIDOf(sub))
	if err != nil {
		return err
	}
	wasOnTrial := user.TrialEndsAt != nil

	out, err := h.applySubscriptionUpdate(user, sub)
	if err != nil {
		return err
	}

	h.resolveSupersededSubscription(out)

	changeType := ""
	switch {
	case wasOnTrial && sub.Status == stripeapi.SubscriptionStatusActive && out.oldPlan == out.sub.Plan:
		changeType = email.ChangeTrialConverted
	default:
		changeType = plans.ChangeType(out.oldPlan, out.sub.Plan)
	}
	if changeType != "" {
		h.sendChangeEmail(user, out, changeType)
	}

	h.auditTransition("subscription_updated", out.oldPlan, out.sub.Plan, sub.ID)
	return nil
}

// applySubscriptionUpdate is the transactional core of the "subscription
// updated" transition. It is shared with the renewal path, which re-runs it
// with a freshly fetched subscription object after a cycle invoice.
func (h *Handler) applySubscriptionUpdate(user *users.User, sub *stripeapi.Subscription) (*reconcileOutcome, error) {
	active := sub.Status == stripeapi.SubscriptionStatusActive

	var out *reconcileOutcome
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = h.reconcileSubscription(tx, user, sub)
		if err != nil {
			return err
		}

		userUpdates := map[string]interface{}{
			"plan":            out.sub.Plan,
			"subscription_id": out.sub.ID,
		}
		bizStatus := business.StatusInactive
		if active {
			bizStatus = business.StatusActive
		}
		bizUpdates := map[string]interface{}{
			"subscription_plan":   out.sub.Plan,
			"subscription_status": bizStatus,
		}
		if active {
			// Payment went through: the user is out of trial and grace.
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
		return nil, err
	}
	return out, nil
}
