package stripewebhook

import (
	"errors"

	stripeapi "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"waveorder/internal/domain/billing"
	"waveorder/internal/domain/business"
	"waveorder/internal/domain/plans"
	"waveorder/internal/domain/users"
	"waveorder/internal/infra/email"
)

func (h *Handler) handleSubscriptionDeleted(sub *stripeapi.Subscription) error {
	var local billing.Subscription
	err := h.DB.Where("stripe_subscription_id = ?", sub.ID).First(&local).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Nothing local mirrors this subscription; not worth a redelivery loop.
		h.Log.Info().Str("subscription_id", sub.ID).Msg("deleted event for unknown subscription, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	var linked []users.User
	canceledAt := h.Now()
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&local).Updates(map[string]interface{}{
			"status":      "canceled",
			"canceled_at": canceledAt,
		}).Error; err != nil {
			return err
		}

		// Usually one user, but shared-billing edge cases allow several.
		if err := tx.Where("subscription_id = ?", local.ID).Find(&linked).Error; err != nil {
			return err
		}
		for _, u := range linked {
			if err := tx.Model(&users.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
				"plan":          plans.PlanStarter,
				"trial_ends_at": nil,
				"grace_ends_at": nil,
			}).Error; err != nil {
				return err
			}
			if err := fanOutToBusinesses(tx, u.ID, map[string]interface{}{
				"subscription_plan":   plans.PlanStarter,
				"subscription_status": business.StatusCancelled,
				"trial_ends_at":       nil,
				"grace_ends_at":       nil,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range linked {
		u := linked[i]
		h.attempt("cancellation email", func() error {
			return h.Mailer.SendSubscriptionChangeEmail(email.SubscriptionChangeEmail{
				To:         u.Email,
				Name:       u.Name,
				ChangeType: email.ChangeCanceled,
				OldPlan:    u.Plan,
				NewPlan:    plans.PlanStarter,
			})
		})
	}

	h.auditTransition("subscription_deleted", local.Plan, plans.PlanStarter, sub.ID)
	return nil
}
