package limit

import (
	"testing"
	"time"
)

func TestCheckCourseLimitFreeUnderLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	creations := []time.Time{
		now.Add(-24 * time.Hour),
		now.Add(-48 * time.Hour),
		now.Add(-72 * time.Hour),
	}
	res := CheckCourseLimit(PlanFree, creations, now)
	if !res.Allowed {
		t.Fatal("expected creation to be allowed")
	}
	if res.Remaining != FreeCourseLimit-3 {
		t.Fatalf("expected remaining %d, got %d", FreeCourseLimit-3, res.Remaining)
	}
	if res.Limit != FreeCourseLimit {
		t.Fatalf("expected limit %d, got %d", FreeCourseLimit, res.Limit)
	}
}

func TestCheckCourseLimitFreeAtLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var creations []time.Time
	for i := 1; i <= 5; i++ {
		creations = append(creations, now.Add(-time.Duration(i)*24*time.Hour))
	}
	res := CheckCourseLimit(PlanFree, creations, now)
	if res.Allowed {
		t.Fatal("expected creation to be denied at the cap")
	}
	if res.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", res.Remaining)
	}
	if res.NextReset == nil {
		t.Fatal("expected a next reset time")
	}
	oldest := now.Add(-5 * 24 * time.Hour)
	if want := oldest.Add(FreeCourseWindow); !res.NextReset.Equal(want) {
		t.Fatalf("expected next reset %v, got %v", want, res.NextReset)
	}
}

func TestCheckCourseLimitFreeSixDailyCreations(t *testing.T) {
	// Six creations at t-1d..t-6d all fall inside the 7-day window.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var creations []time.Time
	for i := 1; i <= 6; i++ {
		creations = append(creations, now.Add(-time.Duration(i)*24*time.Hour))
	}
	res := CheckCourseLimit(PlanFree, creations, now)
	if res.Allowed {
		t.Fatal("expected creation to be denied")
	}
	if res.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", res.Remaining)
	}
}

func TestCheckCourseLimitOldTimestampsIgnored(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	creations := []time.Time{
		now.Add(-8 * 24 * time.Hour),
		now.Add(-30 * 24 * time.Hour),
	}
	res := CheckCourseLimit(PlanFree, creations, now)
	if !res.Allowed {
		t.Fatal("expected creation to be allowed when all timestamps are stale")
	}
	if res.Remaining != FreeCourseLimit {
		t.Fatalf("expected full remaining %d, got %d", FreeCourseLimit, res.Remaining)
	}
	if res.NextReset != nil {
		t.Fatalf("expected no next reset, got %v", res.NextReset)
	}
}

func TestCheckCourseLimitPremiumHourlyWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	creations := []time.Time{
		// Nine within the last hour, plus plenty of older ones that must not count.
		now.Add(-5 * time.Minute), now.Add(-10 * time.Minute), now.Add(-15 * time.Minute),
		now.Add(-20 * time.Minute), now.Add(-25 * time.Minute), now.Add(-30 * time.Minute),
		now.Add(-35 * time.Minute), now.Add(-40 * time.Minute), now.Add(-45 * time.Minute),
		now.Add(-2 * time.Hour), now.Add(-3 * time.Hour), now.Add(-26 * time.Hour),
	}
	res := CheckCourseLimit(PlanPremium, creations, now)
	if !res.Allowed {
		t.Fatal("expected creation to be allowed with nine in-window")
	}
	if res.Remaining != 1 {
		t.Fatalf("expected remaining 1, got %d", res.Remaining)
	}
	if res.Limit != PremiumCourseLimit {
		t.Fatalf("expected limit %d, got %d", PremiumCourseLimit, res.Limit)
	}

	creations = append(creations, now.Add(-50*time.Minute))
	res = CheckCourseLimit(PlanPremium, creations, now)
	if res.Allowed {
		t.Fatal("expected creation to be denied with ten in-window")
	}
}

func TestCheckWhiteboardLimit(t *testing.T) {
	cases := []struct {
		plan      Plan
		total     int
		allowed   bool
		remaining int
	}{
		{PlanFree, 0, true, 3},
		{PlanFree, 2, true, 1},
		{PlanFree, 3, false, 0},
		{PlanFree, 7, false, 0},
		{PlanPremium, 3, true, 17},
		{PlanPremium, 19, true, 1},
		{PlanPremium, 20, false, 0},
	}
	for _, c := range cases {
		res := CheckWhiteboardLimit(c.plan, c.total)
		if res.Allowed != c.allowed {
			t.Fatalf("plan %s total %d: expected allowed=%v", c.plan, c.total, c.allowed)
		}
		if res.Remaining != c.remaining {
			t.Fatalf("plan %s total %d: expected remaining %d, got %d", c.plan, c.total, c.remaining, res.Remaining)
		}
		if res.NextReset != nil {
			t.Fatal("whiteboard limit must not have a reset time")
		}
	}
}
