package email

import "time"

// Change types carried by subscription notification emails.
const (
	ChangeCreated        = "created"
	ChangeUpgraded       = "upgraded"
	ChangeDowngraded     = "downgraded"
	ChangeCanceled       = "canceled"
	ChangeRenewed        = "renewed"
	ChangeTrialConverted = "trial_converted"
	ChangeTrialEnding    = "trial_ending"
	ChangeTrialExpired   = "trial_expired"
	ChangeResumed        = "resumed"
)

type SubscriptionChangeEmail struct {
	To               string
	Name             string
	ChangeType       string
	OldPlan          string
	NewPlan          string
	BillingInterval  string
	AmountEUR        float64
	NextBillingDate  *time.Time
	UpdatePaymentURL string
}

type PaymentFailedEmail struct {
	To               string
	Name             string
	AmountEUR        float64
	NextRetryDate    *time.Time
	UpdatePaymentURL string
}

// Mailer sends end-user billing notifications. Implementations must be safe
// to call best-effort: callers log failures and move on.
type Mailer interface {
	SendSubscriptionChangeEmail(msg SubscriptionChangeEmail) error
	SendPaymentFailedEmail(msg PaymentFailedEmail) error
}
