package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// BillingHandler handles subscription and billing endpoints.
type BillingHandler struct {
	stripeSvc *service.StripeService
	subSvc    service.SubscriptionService
	logger    zerolog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(stripeSvc *service.StripeService, subSvc service.SubscriptionService, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{stripeSvc: stripeSvc, subSvc: subSvc, logger: logger}
}

// RegisterRoutes registers the billing endpoints. The webhook is mounted
// without auth; Stripe authenticates with its signature header.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("/billing/checkout", authMiddleware(http.HandlerFunc(h.Checkout)))
	mux.Handle("/billing/portal", authMiddleware(http.HandlerFunc(h.Portal)))
	mux.Handle("/billing/subscription", authMiddleware(http.HandlerFunc(h.GetSubscription)))
	mux.Handle("/billing/sync", authMiddleware(http.HandlerFunc(h.Sync)))
	mux.Handle("/billing/renewal", authMiddleware(http.HandlerFunc(h.ToggleRenewal)))
	mux.HandleFunc("/billing/webhook", h.stripeSvc.HandleWebhook)
}

// Checkout godoc
// @Summary Initiate a Stripe Checkout session for plan upgrade
// @Description Creates a Stripe Checkout session and returns its URL.
// @Tags billing
// @Accept json
// @Produce json
// @Param checkout body dto.CheckoutRequestDTO true "Checkout request"
// @Success 200 {object} dto.CheckoutResponseDTO
// @Failure 400 {string} string "invalid request payload"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create checkout session"
// @Router /billing/checkout [post]
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req dto.CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	url, err := h.stripeSvc.CreateCheckoutSession(r.Context(), userID, req.Plan)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create checkout session")
		http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.CheckoutResponseDTO{URL: url})
}

// Portal godoc
// @Summary Create a Stripe Customer Portal session
// @Description Generates a Stripe Customer Portal session URL for the authenticated user.
// @Tags billing
// @Produce json
// @Success 200 {object} dto.CheckoutResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create portal session"
// @Router /billing/portal [post]
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	url, err := h.stripeSvc.CreatePortalSession(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create portal session")
		http.Error(w, "failed to create portal session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.CheckoutResponseDTO{URL: url})
}

// GetSubscription godoc
// @Summary Get the user's subscription state
// @Tags billing
// @Produce json
// @Success 200 {object} dto.SubscriptionResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Router /billing/subscription [get]
func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	sub, err := h.subSvc.GetSubscription(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch subscription")
		http.Error(w, "failed to fetch subscription", http.StatusInternalServerError)
		return
	}
	resp := dto.SubscriptionResponseDTO{Plan: "free"}
	if sub != nil {
		resp.Plan = sub.Plan
		resp.Status = sub.Status
		resp.CurrentPeriodStart = &sub.CurrentPeriodStart
		resp.CurrentPeriodEnd = &sub.CurrentPeriodEnd
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Sync godoc
// @Summary Re-sync subscription state from Stripe
// @Description Fetches the stored subscription from Stripe and refreshes local state. Use after a missed webhook.
// @Tags billing
// @Success 204 {string} string "No content"
// @Failure 401 {string} string "unauthorized"
// @Router /billing/sync [post]
func (h *BillingHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	if err := h.stripeSvc.SyncSubscription(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to sync subscription")
		http.Error(w, "failed to sync subscription", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleRenewal godoc
// @Summary Toggle subscription auto-renewal
// @Tags billing
// @Produce json
// @Success 200 {object} dto.RenewalResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Router /billing/renewal [post]
func (h *BillingHandler) ToggleRenewal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	autoRenew, err := h.stripeSvc.ToggleRenewal(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to toggle renewal")
		http.Error(w, "failed to toggle renewal", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.RenewalResponseDTO{AutoRenew: autoRenew})
}
