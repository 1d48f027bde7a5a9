package stripewebhook

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v75"

	"waveorder/internal/domain/billing"
	"waveorder/internal/domain/business"
	"waveorder/internal/domain/plans"
	"waveorder/internal/domain/users"
)

func TestPausedStartsGracePeriod(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "plain",
			now:  time.Date(2026, 6, 10, 9, 30, 0, 0, time.UTC),
			want: time.Date(2026, 6, 17, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "year rollover",
			now:  time.Date(2026, 12, 29, 23, 0, 0, 0, time.UTC),
			want: time.Date(2027, 1, 5, 23, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _, mailer := newTestHandler(t)
			h.Now = func() time.Time { return tc.now }

			user := seedUser(t, h.DB, "cus_1", 2)
			trialEnd := tc.now.AddDate(0, 0, -1)
			require.NoError(t, h.DB.Model(&users.User{}).Where("id = ?", user.ID).Update("trial_ends_at", trialEnd).Error)

			sub := providerSub("sub_1", "cus_1", "price_pro_month", stripeapi.SubscriptionStatusPaused)
			require.NoError(t, h.handleSubscriptionPaused(sub))

			got := reloadUser(t, h.DB, user.ID)
			assert.Equal(t, plans.PlanStarter, got.Plan)
			require.NotNil(t, got.GraceEndsAt)
			assert.Equal(t, tc.want.Unix(), got.GraceEndsAt.Unix())

			for _, b := range userBusinesses(t, h.DB, user.ID) {
				assert.Equal(t, plans.PlanStarter, b.SubscriptionPlan)
				assert.Equal(t, business.StatusTrialExpired, b.SubscriptionStatus)
				require.NotNil(t, b.GraceEndsAt)
				assert.Equal(t, tc.want.Unix(), b.GraceEndsAt.Unix())
			}

			var row billing.Subscription
			require.NoError(t, h.DB.Where("stripe_subscription_id = ?", "sub_1").First(&row).Error)
			assert.Equal(t, "paused", row.Status)

			require.Len(t, mailer.changes, 1)
			assert.Equal(t, "trial_expired", mailer.changes[0].ChangeType)
			assert.NotEmpty(t, mailer.changes[0].UpdatePaymentURL)
		})
	}
}

func TestResumedRestoresPlan(t *testing.T) {
	h, _, mailer := newTestHandler(t)
	user := seedUser(t, h.DB, "cus_1", 2)

	require.NoError(t, h.handleSubscriptionPaused(providerSub("sub_1", "cus_1", "price_biz_month", stripeapi.SubscriptionStatusPaused)))
	mailer.changes = nil

	require.NoError(t, h.handleSubscriptionResumed(providerSub("sub_1", "cus_1", "price_biz_month", stripeapi.SubscriptionStatusActive)))

	got := reloadUser(t, h.DB, user.ID)
	assert.Equal(t, plans.PlanBusiness, got.Plan)
	assert.Nil(t, got.TrialEndsAt)
	assert.Nil(t, got.GraceEndsAt)

	for _, b := range userBusinesses(t, h.DB, user.ID) {
		assert.Equal(t, plans.PlanBusiness, b.SubscriptionPlan)
		assert.Equal(t, business.StatusActive, b.SubscriptionStatus)
		assert.Nil(t, b.GraceEndsAt)
	}

	var row billing.Subscription
	require.NoError(t, h.DB.Where("stripe_subscription_id = ?", "sub_1").First(&row).Error)
	assert.Equal(t, "active", row.Status)
	assert.False(t, row.CancelAtPeriodEnd)
	assert.Nil(t, row.CanceledAt)

	require.Len(t, mailer.changes, 1)
	assert.Equal(t, "resumed", mailer.changes[0].ChangeType)
}

func TestResumedDefaultsToProForUnknownPrice(t *testing.T) {
	h, _, _ := newTestHandler(t)
	user := seedUser(t, h.DB, "cus_1", 1)

	require.NoError(t, h.handleSubscriptionResumed(providerSub("sub_1", "cus_1", "price_mystery", stripeapi.SubscriptionStatusActive)))

	got := reloadUser(t, h.DB, user.ID)
	assert.Equal(t, plans.PlanPro, got.Plan)
}

func TestDeletedResetsEverything(t *testing.T) {
	h, _, mailer := newTestHandler(t)
	user := seedUser(t, h.DB, "cus_1", 3)

	require.NoError(t, h.handleSubscriptionCreated(providerSub("sub_1", "cus_1", "price_biz_month", stripeapi.SubscriptionStatusActive)))
	mailer.changes = nil

	fixed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	h.Now = func() time.Time { return fixed }

	deleted := providerSub("sub_1", "cus_1", "price_biz_month", stripeapi.SubscriptionStatusCanceled)
	require.NoError(t, h.handleSubscriptionDeleted(deleted))

	var row billing.Subscription
	require.NoError(t, h.DB.Where("stripe_subscription_id = ?", "sub_1").First(&row).Error)
	assert.Equal(t, "canceled", row.Status)
	require.NotNil(t, row.CanceledAt)
	assert.Equal(t, fixed.Unix(), row.CanceledAt.Unix())

	got := reloadUser(t, h.DB, user.ID)
	assert.Equal(t, plans.PlanStarter, got.Plan)
	assert.Nil(t, got.TrialEndsAt)
	assert.Nil(t, got.GraceEndsAt)

	for _, b := range userBusinesses(t, h.DB, user.ID) {
		assert.Equal(t, plans.PlanStarter, b.SubscriptionPlan)
		assert.Equal(t, business.StatusCancelled, b.SubscriptionStatus)
	}

	require.Len(t, mailer.changes, 1)
	assert.Equal(t, "canceled", mailer.changes[0].ChangeType)
}

func TestDeletedForUnknownSubscriptionIsNoOp(t *testing.T) {
	h, _, mailer := newTestHandler(t)
	seedUser(t, h.DB, "cus_1", 1)

	require.NoError(t, h.handleSubscriptionDeleted(providerSub("sub_ghost", "cus_1", "price_pro_month", stripeapi.SubscriptionStatusCanceled)))

	var count int64
	require.NoError(t, h.DB.Model(&billing.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, mailer.changes)
}

func TestTrialWillEndSendsReminderOnly(t *testing.T) {
	h, _, mailer := newTestHandler(t)
	user := seedUser(t, h.DB, "cus_1", 1)

	require.NoError(t, h.handleTrialWillEnd(providerSub("sub_1", "cus_1", "price_pro_month", stripeapi.SubscriptionStatusTrialing)))

	// Reminder only, no state change.
	var count int64
	require.NoError(t, h.DB.Model(&billing.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, plans.PlanStarter, reloadUser(t, h.DB, user.ID).Plan)

	require.Len(t, mailer.changes, 1)
	assert.Equal(t, "trial_ending", mailer.changes[0].ChangeType)
}

func TestMailerFailureNeverFailsTransition(t *testing.T) {
	h, _, mailer := newTestHandler(t)
	user := seedUser(t, h.DB, "cus_1", 1)
	mailer.err = errors.New("smtp unreachable")

	require.NoError(t, h.handleSubscriptionCreated(providerSub("sub_1", "cus_1", "price_pro_month", stripeapi.SubscriptionStatusActive)))
	assert.Equal(t, plans.PlanPro, reloadUser(t, h.DB, user.ID).Plan)
}
