package stripe

import (
	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// Client is the subset of the Stripe API the webhook engine calls out to.
// It is injected into the handler so tests can substitute a double.
type Client interface {
	GetSubscription(id string) (*stripeapi.Subscription, error)
	GetCheckoutSession(id string) (*stripeapi.CheckoutSession, error)
	CancelSubscriptionNow(id string) error
	CreateBillingPortalSession(customerID, returnURL string) (string, error)
}

// APIClient talks to the real Stripe API through an explicitly constructed
// client, not the package-global key.
type APIClient struct {
	api *client.API
}

func NewClient(secretKey string) *APIClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &APIClient{api: api}
}

func (c *APIClient) GetSubscription(id string) (*stripeapi.Subscription, error) {
	return c.api.Subscriptions.Get(id, nil)
}

func (c *APIClient) GetCheckoutSession(id string) (*stripeapi.CheckoutSession, error) {
	return c.api.CheckoutSessions.Get(id, &stripeapi.CheckoutSessionParams{
		Params: stripeapi.Params{
			Expand: []*string{
				stripeapi.String("subscription"),
				stripeapi.String("customer"),
			},
		},
	})
}

// CancelSubscriptionNow cancels immediately, not at period end. Used to clean
// up a superseded subscription after an upgrade/downgrade checkout.
func (c *APIClient) CancelSubscriptionNow(id string) error {
	_, err := c.api.Subscriptions.Cancel(id, nil)
	return err
}

func (c *APIClient) CreateBillingPortalSession(customerID, returnURL string) (string, error) {
	s, err := c.api.BillingPortalSessions.New(&stripeapi.BillingPortalSessionParams{
		Customer:  stripeapi.String(customerID),
		ReturnURL: stripeapi.String(returnURL),
	})
	if err != nil {
		return "", err
	}
	return s.URL, nil
}
