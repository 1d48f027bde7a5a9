package stripewebhook

import (
	stripeapi "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"waveorder/internal/domain/business"
	"waveorder/internal/domain/plans"
	"waveorder/internal/domain/users"
	"waveorder/internal/infra/email"
)

// gracePeriod is how long a paused account keeps its data before the
// subscription is deleted provider-side.
const gracePeriodDays = 7

// handleSubscriptionPaused fires when a trial ends without a payment method.
// The user drops to STARTER with a grace window during which they can still
// add a card and resume.
func (h *Handler) handleSubscriptionPaused(sub *stripeapi.Subscription) error {
	user, err := h.userByCustomer(customerIDOf(sub))
	if err != nil {
		return err
	}

	graceEndsAt := h.Now().AddDate(0, 0, gracePeriodDays)

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		out, err := h.reconcileSubscription(tx, user, sub)
		if err != nil {
			return err
		}
		if err := tx.Model(out.sub).Update("status", "paused").Error; err != nil {
			return err
		}

		if err := tx.Model(&users.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"plan":            plans.PlanStarter,
			"subscription_id": out.sub.ID,
			"grace_ends_at":   graceEndsAt,
		}).Error; err != nil {
			return err
		}
		return fanOutToBusinesses(tx, user.ID, map[string]interface{}{
			"subscription_plan":   plans.PlanStarter,
			"subscription_status": business.StatusTrialExpired,
			"grace_ends_at":       graceEndsAt,
		})
	})
	if err != nil {
		return err
	}

	h.attempt("trial expired email", func() error {
		return h.Mailer.SendSubscriptionChangeEmail(email.SubscriptionChangeEmail{
			To:               user.Email,
			Name:             user.Name,
			ChangeType:       email.ChangeTrialExpired,
			OldPlan:          user.Plan,
			NewPlan:          plans.PlanStarter,
			UpdatePaymentURL: h.portalURL(user),
		})
	})
	return nil
}
