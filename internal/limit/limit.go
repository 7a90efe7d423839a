// Package limit computes plan quotas for metered actions. All functions are
// pure: they operate on caller-supplied state and return a snapshot decision.
package limit

import "time"

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Course creation: free users get a rolling weekly allowance, premium users a
// larger hourly one.
const (
	FreeCourseLimit     = 5
	FreeCourseWindow    = 7 * 24 * time.Hour
	PremiumCourseLimit  = 10
	PremiumCourseWindow = time.Hour
)

// Whiteboard creation is a lifetime cap with no time decay.
const (
	FreeWhiteboardLimit    = 3
	PremiumWhiteboardLimit = 20
)

// Result is a snapshot quota decision.
type Result struct {
	Allowed   bool       `json:"allowed"`
	Remaining int        `json:"remaining"`
	Limit     int        `json:"limit"`
	NextReset *time.Time `json:"next_reset,omitempty"`
}

// CheckCourseLimit decides whether a user may create another course given the
// timestamps of their past creations. Only timestamps inside the plan's rolling
// window count; NextReset is when the oldest in-window creation falls out.
func CheckCourseLimit(plan Plan, creations []time.Time, now time.Time) Result {
	max, window := FreeCourseLimit, FreeCourseWindow
	if plan == PlanPremium {
		max, window = PremiumCourseLimit, PremiumCourseWindow
	}

	cutoff := now.Add(-window)
	var count int
	var oldest time.Time
	for _, t := range creations {
		if t.After(cutoff) {
			count++
			if oldest.IsZero() || t.Before(oldest) {
				oldest = t
			}
		}
	}

	res := Result{
		Allowed:   count < max,
		Remaining: max - count,
		Limit:     max,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !oldest.IsZero() {
		reset := oldest.Add(window)
		res.NextReset = &reset
	}
	return res
}

// CheckWhiteboardLimit compares a lifetime creation counter against the
// plan's cap.
func CheckWhiteboardLimit(plan Plan, total int) Result {
	max := FreeWhiteboardLimit
	if plan == PlanPremium {
		max = PremiumWhiteboardLimit
	}
	remaining := max - total
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   total < max,
		Remaining: remaining,
		Limit:     max,
	}
}
