package stripewebhook

import (
	stripeapi "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"waveorder/internal/domain/business"
	"waveorder/internal/domain/users"
	"waveorder/internal/infra/email"
)

// handleSubscriptionResumed restores the paid plan after a paused
// subscription gets a working payment method again.
func (h *Handler) handleSubscriptionResumed(sub *stripeapi.Subscription) error {
	user, err := h.userByCustomer(customerIDOf(sub))
	if err != nil {
		return err
	}

	plan := h.planForSubscription(sub)

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		out, err := h.reconcileSubscription(tx, user, sub)
		if err != nil {
			return err
		}
		if err := tx.Model(out.sub).Updates(map[string]interface{}{
			"cancel_at_period_end": false,
			"canceled_at":          nil,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&users.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"plan":            plan,
			"subscription_id": out.sub.ID,
			"trial_ends_at":   nil,
			"grace_ends_at":   nil,
		}).Error; err != nil {
			return err
		}
		return fanOutToBusinesses(tx, user.ID, map[string]interface{}{
			"subscription_plan":   plan,
			"subscription_status": business.StatusActive,
			"trial_ends_at":       nil,
			"grace_ends_at":       nil,
		})
	})
	if err != nil {
		return err
	}

	h.attempt("resume email", func() error {
		return h.Mailer.SendSubscriptionChangeEmail(email.SubscriptionChangeEmail{
			To:         user.Email,
			Name:       user.Name,
			ChangeType: email.ChangeResumed,
			OldPlan:    user.Plan,
			NewPlan:    plan,
		})
	})
	return nil
}

// handleTrialWillEnd is side-effect only: remind the user a few days before
// the trial converts or pauses. No state mutation.
func (h *Handler) handleTrialWillEnd(sub *stripeapi.Subscription) error {
	user, err := h.userByCustomer(customerIDOf(sub))
	if err != nil {
		return err
	}

	h.attempt("trial ending email", func() error {
		return h.Mailer.SendSubscriptionChangeEmail(email.SubscriptionChangeEmail{
			To:               user.Email,
			Name:             user.Name,
			ChangeType:       email.ChangeTrialEnding,
			OldPlan:          user.Plan,
			NewPlan:          h.planForSubscription(sub),
			UpdatePaymentURL: h.portalURL(user),
		})
	})
	return nil
}
