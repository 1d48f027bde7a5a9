package stripewebhook

import (
	"errors"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"waveorder/internal/domain/billing"
	"waveorder/internal/domain/business"
	"waveorder/internal/domain/plans"
	"waveorder/internal/domain/users"
	stripeinfra "waveorder/internal/infra/stripe"
)

// reconcileOutcome reports what the idempotent upsert decided, for the
// conflict resolver and email classification downstream.
type reconcileOutcome struct {
	sub     *billing.Subscription
	user    *users.User
	oldPlan string
	created bool

	// supersededID is the Stripe id of a previous subscription this user is
	// moving away from; the conflict resolver cancels it after commit.
	supersededID string
}

// userByCustomer resolves the local user for a Stripe customer id. A missing
// user is a data-integrity failure: the error propagates so Stripe redelivers
// until a human reconciles the orphaned customer.
func (h *Handler) userByCustomer(customerID string) (*users.User, error) {
	if customerID == "" {
		return nil, errors.New("event missing customer id")
	}
	var user users.User
	if err := h.DB.Where("stripe_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("no user for stripe customer %s: %w", customerID, err)
	}
	return &user, nil
}

// reconcileSubscription locates or creates the local Subscription row for a
// Stripe subscription object. Upsert semantics, safe to repeat:
//
//  1. A row already mirrors this Stripe id: update it in place. Covers
//     redeliveries and updated-before-created ordering.
//  2. The user already has a subscription row under a different Stripe id:
//     reassign it instead of creating a second row. This is the
//     upgrade/downgrade path; the old Stripe id is reported back for cleanup.
//  3. No row at all: create one.
//
// All field writes are absolute values from the provider object, so replaying
// the same event converges on the same state.
func (h *Handler) reconcileSubscription(tx *gorm.DB, user *users.User, sub *stripeapi.Subscription) (*reconcileOutcome, error) {
	out := &reconcileOutcome{user: user, oldPlan: user.Plan}
	fields := h.subscriptionFields(sub)

	var existing billing.Subscription
	err := tx.Where("stripe_subscription_id = ?", sub.ID).First(&existing).Error
	if err == nil {
		if err := tx.Model(&existing).Updates(fields).Error; err != nil {
			return nil, err
		}
		if err := tx.First(&existing, existing.ID).Error; err != nil {
			return nil, err
		}
		out.sub = &existing
		return out, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if user.SubscriptionID != nil {
		var current billing.Subscription
		err := tx.Where("id = ?", *user.SubscriptionID).First(&current).Error
		if err == nil {
			if current.StripeSubscriptionID != sub.ID {
				out.supersededID = current.StripeSubscriptionID
			}
			if err := tx.Model(&current).Updates(fields).Error; err != nil {
				return nil, err
			}
			if err := tx.First(&current, current.ID).Error; err != nil {
				return nil, err
			}
			out.sub = &current
			return out, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// dangling pointer, fall through and create
	}

	created := billing.Subscription{
		StripeSubscriptionID: sub.ID,
		Status:               stripeinfra.NormalizeStatus(string(sub.Status)),
		StripePriceID:        priceIDOf(sub),
		Plan:                 h.planForSubscription(sub),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodStart > 0 {
		start := time.Unix(sub.CurrentPeriodStart, 0)
		created.CurrentPeriodStart = &start
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0)
		created.CurrentPeriodEnd = &end
	}
	if sub.CanceledAt > 0 {
		canceled := time.Unix(sub.CanceledAt, 0)
		created.CanceledAt = &canceled
	}
	if err := tx.Create(&created).Error; err != nil {
		return nil, err
	}
	out.sub = &created
	out.created = true
	return out, nil
}

// subscriptionFields projects the provider object into absolute column
// values. cancel_at_period_end and canceled_at always mirror the provider so
// a resume clears them.
func (h *Handler) subscriptionFields(sub *stripeapi.Subscription) map[string]interface{} {
	fields := map[string]interface{}{
		"stripe_subscription_id": sub.ID,
		"status":                 stripeinfra.NormalizeStatus(string(sub.Status)),
		"stripe_price_id":        priceIDOf(sub),
		"plan":                   h.planForSubscription(sub),
		"cancel_at_period_end":   sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodStart > 0 {
		fields["current_period_start"] = time.Unix(sub.CurrentPeriodStart, 0)
	}
	if sub.CurrentPeriodEnd > 0 {
		fields["current_period_end"] = time.Unix(sub.CurrentPeriodEnd, 0)
	}
	if sub.CanceledAt > 0 {
		fields["canceled_at"] = time.Unix(sub.CanceledAt, 0)
	} else {
		fields["canceled_at"] = nil
	}
	return fields
}

// planForSubscription maps the subscription's price to a local plan tier.
// Unresolvable prices default to PRO rather than silently demoting a paying
// customer to STARTER.
func (h *Handler) planForSubscription(sub *stripeapi.Subscription) string {
	priceID := priceIDOf(sub)
	if plan, ok := h.Plans.PlanForPrice(priceID); ok {
		return plan
	}
	h.Log.Warn().Str("price_id", priceID).Str("subscription_id", sub.ID).Msg("unknown price id, defaulting plan to PRO")
	return plans.PlanPro
}

func priceIDOf(sub *stripeapi.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}

func customerIDOf(sub *stripeapi.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

// fanOutToBusinesses applies the same updates to every business linked to the
// user, inside the caller's transaction so the fan-out is all-or-nothing.
func fanOutToBusinesses(tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	var links []business.BusinessUser
	if err := tx.Where("user_id = ?", userID).Find(&links).Error; err != nil {
		return err
	}
	for _, link := range links {
		if err := tx.Model(&business.Business{}).
			Where("id = ?", link.BusinessID).
			Updates(updates).Error; err != nil {
			return err
		}
	}
	return nil
}
