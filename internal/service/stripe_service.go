package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	subscriptionpkg "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeService manages Stripe integration
type StripeService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	subSvc   SubscriptionService
	logger   zerolog.Logger
}

// NewStripeService initializes Stripe key and returns service with a scoped logger
func NewStripeService(cfg *config.Config, userRepo repository.UserRepository, subSvc SubscriptionService, logger zerolog.Logger) *StripeService {
	stripe.Key = cfg.StripeSecretKey
	lg := logger.With().Str("service", "StripeService").Logger()
	return &StripeService{cfg: cfg, userRepo: userRepo, subSvc: subSvc, logger: lg}
}

// planFromPrice maps a Stripe price ID onto a plan tier.
func (s *StripeService) planFromPrice(priceID string) string {
	if priceID == s.cfg.StripePriceMonthly || priceID == s.cfg.StripePriceAnnual {
		return "premium"
	}
	return "free"
}

// getUserIDFromEvent resolves a user ID from webhook metadata or customer ID
func (s *StripeService) getUserIDFromEvent(ctx context.Context, metadata map[string]string, customerID string) (string, error) {
	if userID, ok := metadata["user_id"]; ok && userID != "" {
		return userID, nil
	}
	if customerID == "" {
		return "", errors.New("cannot determine user: missing metadata and customer id")
	}
	s.logger.Warn().Str("stripe_customer_id", customerID).Msg("Missing user_id metadata; looking up user by customer ID")
	u, err := s.userRepo.GetUserByStripeCustomerID(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("failed to lookup user by Stripe customer ID: %w", err)
	}
	if u == nil {
		return "", fmt.Errorf("no user found for customer ID: %s", customerID)
	}
	return u.UserID, nil
}

// GetOrCreateCustomer ensures a Stripe Customer exists for a user.
// Customers are created at signup, so this mostly handles legacy users.
func (s *StripeService) GetOrCreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	s.logger.Warn().Str("user_id", user.UserID).Msg("No Stripe customer ID found, creating customer as fallback")
	return s.CreateCustomer(ctx, user)
}

// CreateCustomer creates a new Stripe customer for a user
func (s *StripeService) CreateCustomer(ctx context.Context, user *model.User) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.Name),
		Metadata: map[string]string{"user_id": user.UserID},
	}
	cust, err := customerpkg.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	if err := s.userRepo.UpdateStripeCustomerID(ctx, user.UserID, cust.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to store stripe customer id in user_profiles")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a Stripe Checkout session
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, plan string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for checkout session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		s.logger.Error().Str("user_id", userID).Msg("User not found for checkout session")
		return "", fmt.Errorf("user not found: %s", userID)
	}
	customerID, err := s.GetOrCreateCustomer(ctx, user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to get or create Stripe customer for checkout session")
		return "", err
	}
	var priceID string
	switch plan {
	case "monthly":
		priceID = s.cfg.StripePriceMonthly
	case "annual":
		priceID = s.cfg.StripePriceAnnual
	default:
		return "", fmt.Errorf("invalid plan: %s", plan)
	}
	sessParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(stripe.CheckoutSessionModeSubscription),
		SuccessURL:         stripe.String(s.cfg.StripePortalReturnURL + "?status=success"),
		CancelURL:          stripe.String(s.cfg.StripePortalReturnURL + "?status=cancel"),
		Metadata:           map[string]string{"user_id": userID},
	}
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("plan", plan).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession creates a Stripe Customer Portal session
func (s *StripeService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for portal session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil || user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		s.logger.Error().Str("user_id", userID).Msg("No Stripe customer ID found for user when creating portal session")
		return "", fmt.Errorf("no stripe customer for user: %s", userID)
	}
	params := &stripe.BillingPortalSessionParams{Customer: stripe.String(*user.StripeCustomerID), ReturnURL: stripe.String(s.cfg.StripePortalReturnURL)}
	sess, err := billingsession.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create Stripe billing portal session")
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// SyncSubscription re-fetches the user's subscription from Stripe and
// refreshes the local mirror. Used when a webhook was missed.
func (s *StripeService) SyncSubscription(ctx context.Context, userID string) error {
	sub, err := s.subSvc.GetSubscription(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch local subscription: %w", err)
	}
	if sub == nil || sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID == "" {
		return fmt.Errorf("no stripe subscription for user: %s", userID)
	}
	subObj, err := subscriptionpkg.Get(*sub.StripeSubscriptionID, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("subscription_id", *sub.StripeSubscriptionID).Msg("Failed to fetch subscription from Stripe")
		return fmt.Errorf("fetch stripe subscription: %w", err)
	}
	return s.applySubscriptionState(ctx, userID, subObj)
}

// ToggleRenewal flips cancel_at_period_end on the user's subscription and
// returns the new auto-renew state (true = will renew).
func (s *StripeService) ToggleRenewal(ctx context.Context, userID string) (bool, error) {
	sub, err := s.subSvc.GetSubscription(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("fetch local subscription: %w", err)
	}
	if sub == nil || sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID == "" {
		return false, fmt.Errorf("no stripe subscription for user: %s", userID)
	}
	subObj, err := subscriptionpkg.Get(*sub.StripeSubscriptionID, nil)
	if err != nil {
		return false, fmt.Errorf("fetch stripe subscription: %w", err)
	}
	updated, err := subscriptionpkg.Update(subObj.ID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(!subObj.CancelAtPeriodEnd),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("subscription_id", subObj.ID).Msg("Failed to toggle renewal")
		return false, fmt.Errorf("toggle renewal: %w", err)
	}
	if err := s.applySubscriptionState(ctx, userID, updated); err != nil {
		return false, err
	}
	return !updated.CancelAtPeriodEnd, nil
}

// applySubscriptionState mirrors a Stripe subscription object into the database.
func (s *StripeService) applySubscriptionState(ctx context.Context, userID string, subObj *stripe.Subscription) error {
	if len(subObj.Items.Data) == 0 {
		return fmt.Errorf("subscription %s has no items", subObj.ID)
	}
	item := subObj.Items.Data[0]
	if item.Price == nil || item.Price.ID == "" {
		return fmt.Errorf("could not determine price ID for subscription %s", subObj.ID)
	}
	start := time.Unix(item.CurrentPeriodStart, 0)
	end := time.Unix(item.CurrentPeriodEnd, 0)

	status := string(subObj.Status)
	if subObj.CancelAtPeriodEnd || subObj.Status == stripe.SubscriptionStatusCanceled {
		status = "cancelled"
	}
	return s.subSvc.UpsertStripeSubscription(ctx, userID, s.planFromPrice(item.Price.ID), start, end, status, subObj.ID)
}

// HandleWebhook processes Stripe webhook events
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("event_type", string(event.Type)).Msg("Stripe webhook received")

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			s.logger.Error().Err(err).Msg("Invalid checkout.session data")
			http.Error(w, "invalid checkout.session data", http.StatusBadRequest)
			return
		}
		if cs.Subscription == nil || cs.Subscription.ID == "" {
			s.logger.Error().Msg("Checkout session has no subscription")
			http.Error(w, "checkout session has no subscription", http.StatusBadRequest)
			return
		}
		userID := cs.Metadata["user_id"]
		if userID == "" {
			s.logger.Error().Str("subscription_id", cs.Subscription.ID).Msg("Missing user_id in checkout session metadata")
			http.Error(w, "missing user_id in metadata", http.StatusBadRequest)
			return
		}
		// Fetch the full subscription object for timing and price details
		subObj, err := subscriptionpkg.Get(cs.Subscription.ID, nil)
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", cs.Subscription.ID).Msg("Failed to fetch subscription details")
			http.Error(w, "failed to fetch subscription details", http.StatusInternalServerError)
			return
		}
		if err := s.applySubscriptionState(ctx, userID, subObj); err != nil {
			s.logger.Error().Err(err).Msg("Failed to save subscription on checkout.session.completed")
			http.Error(w, "failed to save subscription", http.StatusInternalServerError)
			return
		}

	case "customer.subscription.updated":
		var ss stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &ss); err != nil {
			s.logger.Error().Err(err).Msg("Invalid customer.subscription.updated payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		userID, err := s.getUserIDFromEvent(ctx, ss.Metadata, customerIDOf(ss.Customer))
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", ss.ID).Msg("Failed to determine user ID from subscription")
			http.Error(w, "failed to identify user", http.StatusInternalServerError)
			return
		}
		if err := s.applySubscriptionState(ctx, userID, &ss); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to update subscription on customer.subscription.updated")
			http.Error(w, "failed to update subscription", http.StatusInternalServerError)
			return
		}

	case "customer.subscription.deleted":
		var ss stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &ss); err != nil {
			s.logger.Error().Err(err).Msg("Invalid customer.subscription.deleted payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		userID, err := s.getUserIDFromEvent(ctx, ss.Metadata, customerIDOf(ss.Customer))
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", ss.ID).Msg("Failed to determine user ID from subscription")
			http.Error(w, "failed to identify user", http.StatusInternalServerError)
			return
		}
		if err := s.subSvc.DowngradeUserToFreePlan(ctx, userID); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to downgrade subscription on customer.subscription.deleted")
			http.Error(w, "failed to downgrade subscription", http.StatusInternalServerError)
			return
		}

	case "invoice.payment_succeeded":
		userID, ok := s.userFromInvoice(ctx, w, event.Data.Raw)
		if !ok {
			return
		}
		if userID == "" {
			// One-time invoice with no subscription; nothing to refresh.
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := s.subSvc.SetStatus(ctx, userID, "active"); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to refresh status on invoice.payment_succeeded")
			http.Error(w, "failed to update subscription", http.StatusInternalServerError)
			return
		}

	case "invoice.payment_failed":
		userID, ok := s.userFromInvoice(ctx, w, event.Data.Raw)
		if !ok {
			return
		}
		if userID == "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := s.subSvc.SetStatus(ctx, userID, "past_due"); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to refresh status on invoice.payment_failed")
			http.Error(w, "failed to update subscription", http.StatusInternalServerError)
			return
		}

	default:
		s.logger.Debug().Str("event_type", string(event.Type)).Msg("Ignoring unhandled Stripe event")
	}

	w.WriteHeader(http.StatusOK)
}

// userFromInvoice parses an invoice payload and resolves its user. The bool
// return is false when a response has already been written. An empty user ID
// with ok=true means the invoice carries no subscription.
func (s *StripeService) userFromInvoice(ctx context.Context, w http.ResponseWriter, raw []byte) (string, bool) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		s.logger.Error().Err(err).Msg("Invalid invoice payload")
		http.Error(w, "invalid invoice data", http.StatusBadRequest)
		return "", false
	}

	var hasSubscription bool
	if invoice.Lines != nil {
		for _, line := range invoice.Lines.Data {
			if line.Subscription != nil && line.Subscription.ID != "" {
				hasSubscription = true
				break
			}
		}
	}
	if !hasSubscription {
		s.logger.Info().Str("invoice_id", invoice.ID).Msg("Invoice has no subscription, skipping subscription update")
		return "", true
	}

	userID, err := s.getUserIDFromEvent(ctx, invoice.Metadata, customerIDOf(invoice.Customer))
	if err != nil {
		s.logger.Error().Err(err).Str("invoice_id", invoice.ID).Msg("Failed to determine user ID from invoice")
		http.Error(w, "failed to identify user", http.StatusInternalServerError)
		return "", false
	}
	return userID, true
}

func customerIDOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
