package stripewebhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v75"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"waveorder/database"
	"waveorder/internal/domain/business"
	"waveorder/internal/domain/plans"
	"waveorder/internal/domain/users"
	"waveorder/internal/infra/audit"
	"waveorder/internal/infra/email"
)

const testWebhookSecret = "whsec_test_secret"

type fakeStripeClient struct {
	subs     map[string]*stripeapi.Subscription
	sessions map[string]*stripeapi.CheckoutSession

	subErr    error
	canceled  []string
	cancelErr error
	portalURL string
	portalErr error
}

func (f *fakeStripeClient) GetSubscription(id string) (*stripeapi.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	sub, ok := f.subs[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription: %s", id)
	}
	return sub, nil
}

func (f *fakeStripeClient) GetCheckoutSession(id string) (*stripeapi.CheckoutSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", id)
	}
	return session, nil
}

func (f *fakeStripeClient) CancelSubscriptionNow(id string) error {
	f.canceled = append(f.canceled, id)
	return f.cancelErr
}

func (f *fakeStripeClient) CreateBillingPortalSession(customerID, returnURL string) (string, error) {
	if f.portalErr != nil {
		return "", f.portalErr
	}
	if f.portalURL != "" {
		return f.portalURL, nil
	}
	return "https://billing.stripe.test/session", nil
}

type fakeMailer struct {
	changes  []email.SubscriptionChangeEmail
	failures []email.PaymentFailedEmail
	err      error
}

func (f *fakeMailer) SendSubscriptionChangeEmail(msg email.SubscriptionChangeEmail) error {
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, msg)
	return nil
}

func (f *fakeMailer) SendPaymentFailedEmail(msg email.PaymentFailedEmail) error {
	if f.err != nil {
		return f.err
	}
	f.failures = append(f.failures, msg)
	return nil
}

func testCatalog() *plans.Catalog {
	return plans.NewCatalog(map[string]plans.Pricing{
		plans.PlanPro:      {MonthlyPriceID: "price_pro_month", AnnualPriceID: "price_pro_year", MonthlyEUR: 19, AnnualEUR: 190},
		plans.PlanBusiness: {MonthlyPriceID: "price_biz_month", AnnualPriceID: "price_biz_year", MonthlyEUR: 49, AnnualEUR: 490},
	})
}

func newTestHandler(t *testing.T) (*Handler, *fakeStripeClient, *fakeMailer) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	client := &fakeStripeClient{
		subs:     map[string]*stripeapi.Subscription{},
		sessions: map[string]*stripeapi.CheckoutSession{},
	}
	mailer := &fakeMailer{}

	h := New(db, client, mailer, testCatalog(), audit.NewSink(zerolog.Nop()), zerolog.Nop(), testWebhookSecret, "http://localhost:3000")
	return h, client, mailer
}

func seedUser(t *testing.T, db *gorm.DB, customerID string, businessCount int) *users.User {
	t.Helper()

	cid := customerID
	u := &users.User{
		Name:             "Ada",
		Email:            customerID + "@example.com",
		Plan:             plans.PlanStarter,
		StripeCustomerID: &cid,
	}
	require.NoError(t, db.Create(u).Error)

	for i := 0; i < businessCount; i++ {
		b := &business.Business{
			Name:               fmt.Sprintf("shop-%d", i),
			SubscriptionPlan:   plans.PlanStarter,
			SubscriptionStatus: business.StatusActive,
		}
		require.NoError(t, db.Create(b).Error)
		require.NoError(t, db.Create(&business.BusinessUser{BusinessID: b.ID, UserID: u.ID}).Error)
	}
	return u
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *users.User {
	t.Helper()
	var u users.User
	require.NoError(t, db.First(&u, id).Error)
	return &u
}

func userBusinesses(t *testing.T, db *gorm.DB, userID uint) []business.Business {
	t.Helper()
	var links []business.BusinessUser
	require.NoError(t, db.Where("user_id = ?", userID).Find(&links).Error)
	var out []business.Business
	for _, l := range links {
		var b business.Business
		require.NoError(t, db.First(&b, l.BusinessID).Error)
		out = append(out, b)
	}
	return out
}

func providerSub(id, customerID, priceID string, status stripeapi.SubscriptionStatus) *stripeapi.Subscription {
	now := time.Now()
	return &stripeapi.Subscription{
		ID:                 id,
		Customer:           &stripeapi.Customer{ID: customerID},
		Status:             status,
		CurrentPeriodStart: now.Unix(),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0).Unix(),
		Items: &stripeapi.SubscriptionItemList{
			Data: []*stripeapi.SubscriptionItem{
				{Price: &stripeapi.Price{ID: priceID}},
			},
		},
	}
}

// eventPayload builds the raw event envelope the way Stripe delivers it.
func eventPayload(t *testing.T, eventType string, object map[string]interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"id":      "evt_test",
		"object":  "event",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]interface{}{"object": object},
	})
	require.NoError(t, err)
	return b
}

// signPayload computes a Stripe-Signature header over the exact body bytes.
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(t *testing.T, h *Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook", h.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
