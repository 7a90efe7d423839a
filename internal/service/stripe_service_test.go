package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/limit"
	"app/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

const testWebhookSecret = "whsec_test_secret"

type fakeSubscriptionService struct {
	downgraded []string
	statuses   map[string]string
}

func (f *fakeSubscriptionService) GetSubscription(ctx context.Context, userID string) (*model.UserSubscription, error) {
	return nil, nil
}
func (f *fakeSubscriptionService) GetPlanTier(ctx context.Context, userID string) (limit.Plan, error) {
	return limit.PlanFree, nil
}
func (f *fakeSubscriptionService) UpsertStripeSubscription(ctx context.Context, userID, plan string, startsAt, endsAt time.Time, status, stripeSubscriptionID string) error {
	return nil
}
func (f *fakeSubscriptionService) SetStatus(ctx context.Context, userID, status string) error {
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[userID] = status
	return nil
}
func (f *fakeSubscriptionService) DowngradeUserToFreePlan(ctx context.Context, userID string) error {
	f.downgraded = append(f.downgraded, userID)
	return nil
}

func newTestStripeService(subSvc SubscriptionService) *StripeService {
	cfg := &config.Config{StripeWebhookSecret: testWebhookSecret}
	users := &fakeUserRepo{users: map[string]*model.User{}}
	return NewStripeService(cfg, users, subSvc, zerolog.Nop())
}

// signWebhookPayload builds a Stripe-Signature header the way Stripe does:
// an HMAC-SHA256 of "<timestamp>.<payload>" keyed with the endpoint secret.
func signWebhookPayload(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(t *testing.T, svc *StripeService, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/billing/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	svc.HandleWebhook(rec, req)
	return rec
}

func webhookEvent(eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, eventType, object))
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	subSvc := &fakeSubscriptionService{}
	svc := newTestStripeService(subSvc)

	payload := webhookEvent("customer.subscription.deleted", `{"id":"sub_1","metadata":{"user_id":"u1"}}`)
	rec := postWebhook(t, svc, payload, "t=1,v1=deadbeef")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", rec.Code)
	}
	if len(subSvc.downgraded) != 0 {
		t.Fatalf("expected no downgrade on rejected webhook, got %v", subSvc.downgraded)
	}
}

func TestHandleWebhookSubscriptionDeleted(t *testing.T) {
	subSvc := &fakeSubscriptionService{}
	svc := newTestStripeService(subSvc)

	payload := webhookEvent("customer.subscription.deleted", `{"id":"sub_1","metadata":{"user_id":"u1"}}`)
	rec := postWebhook(t, svc, payload, signWebhookPayload(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(subSvc.downgraded) != 1 || subSvc.downgraded[0] != "u1" {
		t.Fatalf("expected user u1 downgraded, got %v", subSvc.downgraded)
	}
}

func TestHandleWebhookInvoicePaymentFailed(t *testing.T) {
	subSvc := &fakeSubscriptionService{}
	svc := newTestStripeService(subSvc)

	invoice := `{"id":"in_1","metadata":{"user_id":"u1"},"lines":{"data":[{"id":"il_1","subscription":{"id":"sub_1"}}]}}`
	payload := webhookEvent("invoice.payment_failed", invoice)
	rec := postWebhook(t, svc, payload, signWebhookPayload(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if subSvc.statuses["u1"] != "past_due" {
		t.Fatalf("expected status past_due for u1, got %q", subSvc.statuses["u1"])
	}
}

func TestHandleWebhookInvoiceWithoutSubscriptionIsNoop(t *testing.T) {
	subSvc := &fakeSubscriptionService{}
	svc := newTestStripeService(subSvc)

	payload := webhookEvent("invoice.payment_succeeded", `{"id":"in_1","lines":{"data":[]}}`)
	rec := postWebhook(t, svc, payload, signWebhookPayload(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 no-op, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(subSvc.statuses) != 0 {
		t.Fatalf("expected no status update, got %v", subSvc.statuses)
	}
}
