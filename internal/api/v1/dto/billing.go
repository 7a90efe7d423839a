package dto

import "time"

// CheckoutRequestDTO starts a Stripe Checkout session
type CheckoutRequestDTO struct {
	Plan string `json:"plan" validate:"required,oneof=monthly annual"`
}

// CheckoutResponseDTO carries the hosted checkout URL
type CheckoutResponseDTO struct {
	URL string `json:"url"`
}

// SubscriptionResponseDTO mirrors a user's subscription state
type SubscriptionResponseDTO struct {
	Plan               string     `json:"plan"`
	Status             string     `json:"status,omitempty"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
}

// RenewalResponseDTO returns the auto-renew state after a toggle
type RenewalResponseDTO struct {
	AutoRenew bool `json:"auto_renew"`
}

// LimitResponseDTO reports the caller's remaining creation quota
type LimitResponseDTO struct {
	Allowed   bool       `json:"allowed"`
	Remaining int        `json:"remaining"`
	Limit     int        `json:"limit"`
	NextReset *time.Time `json:"next_reset,omitempty"`
}
