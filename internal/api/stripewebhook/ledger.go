package stripewebhook

import (
	"errors"

	stripeapi "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"waveorder/internal/domain/billing"
	"waveorder/internal/domain/users"
)

// productMetadataKey marks subscriptions that belong to this product. The
// Stripe account also hosts sibling products whose invoices must be ignored.
const (
	productMetadataKey   = "product"
	productMetadataValue = "waveorder"
)

// recordTransaction writes one ledger row per invoice, deduplicated by
// invoice id. Purely a billing-history record: any failure is logged and
// swallowed so it never blocks the subscription transition.
func (h *Handler) recordTransaction(inv *stripeapi.Invoice, status string) *billing.StripeTransaction {
	txn, err := h.recordTransactionOnce(inv, status)
	if err != nil {
		h.Log.Warn().Err(err).Str("status", status).Msg("failed to record stripe transaction")
		return nil
	}
	return txn
}

func (h *Handler) recordTransactionOnce(inv *stripeapi.Invoice, status string) (*billing.StripeTransaction, error) {
	if inv == nil || inv.ID == "" {
		return nil, errors.New("invoice missing id")
	}

	var existing billing.StripeTransaction
	err := h.DB.Where("stripe_invoice_id = ?", inv.ID).First(&existing).Error
	if err == nil {
		// Duplicate delivery; revenue must not double-count.
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	plan, ours := h.invoicePlan(inv)
	if !ours {
		h.Log.Debug().Str("invoice_id", inv.ID).Msg("invoice belongs to another product, skipping ledger")
		return nil, nil
	}

	txn := billing.StripeTransaction{
		StripeInvoiceID: inv.ID,
		AmountEUR:       float64(inv.AmountPaid) / 100,
		Currency:        string(inv.Currency),
		Status:          status,
		BillingReason:   string(inv.BillingReason),
	}
	if status == "failed" {
		txn.AmountEUR = float64(inv.AmountDue) / 100
	}
	if plan != "" {
		txn.Plan = &plan
	}
	if inv.Subscription != nil && inv.Subscription.ID != "" {
		subID := inv.Subscription.ID
		txn.StripeSubscriptionID = &subID
	}
	if inv.HostedInvoiceURL != "" {
		url := inv.HostedInvoiceURL
		txn.InvoiceURL = &url
	}
	if inv.Customer != nil && inv.Customer.ID != "" {
		var user users.User
		if err := h.DB.Where("stripe_customer_id = ?", inv.Customer.ID).First(&user).Error; err == nil {
			txn.UserID = &user.ID
		}
	}

	if err := h.DB.Create(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// invoicePlan decides whether the invoice belongs to this product and, if so,
// which plan it bills. Ours when the subscription's price resolves through
// the catalog, or when its metadata carries the product marker.
func (h *Handler) invoicePlan(inv *stripeapi.Invoice) (string, bool) {
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return "", false
	}
	sub, err := h.Stripe.GetSubscription(inv.Subscription.ID)
	if err != nil {
		h.Log.Warn().Err(err).Str("subscription_id", inv.Subscription.ID).Msg("could not fetch subscription for invoice filtering")
		return "", false
	}
	if plan, ok := h.Plans.PlanForPrice(priceIDOf(sub)); ok {
		return plan, true
	}
	if sub.Metadata[productMetadataKey] == productMetadataValue {
		return sub.Metadata["plan"], true
	}
	return "", false
}
