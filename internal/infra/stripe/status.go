package stripe

import "strings"

// NormalizeStatus folds the Stripe subscription status vocabulary into the
// values the local Subscription model stores.
func NormalizeStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "":
		return "none"
	case "active":
		return "active"
	case "trialing":
		return "trialing"
	case "past_due", "unpaid":
		return "past_due"
	case "paused":
		return "paused"
	case "canceled", "incomplete_expired":
		return "canceled"
	default:
		return strings.TrimSpace(s)
	}
}
