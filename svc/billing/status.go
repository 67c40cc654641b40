package billing

import (
	"strings"
	"time"

	"github.com/dmitrymomot/shopnotes/store"
)

// Status is the local plan status stored on a shop.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusTrial     Status = "TRIAL"
	StatusGrace     Status = "GRACE"
	StatusCancelled Status = "CANCELLED"
	StatusPastDue   Status = "PAST_DUE"
	StatusNone      Status = "NONE"
)

// ParseStatus reads a stored status. Anything unknown reads as NONE.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusActive, StatusTrial, StatusGrace, StatusCancelled, StatusPastDue, StatusNone:
		return st
	default:
		return StatusNone
	}
}

func (s Status) String() string { return string(s) }

// MapStatus translates a provider status into a local one.
//
// trialEndsAt promotes active and unknown subscriptions to TRIAL while it is
// in the future. cancelAt keeps a cancelled subscription in GRACE until it
// passes. Unrecognized statuses map to ACTIVE (or TRIAL), unless strict is
// set, in which case they map to PAST_DUE.
func MapStatus(raw string, trialEndsAt, cancelAt *time.Time, now time.Time, strict bool) Status {
	s := normalizeRaw(raw)
	trialing := trialEndsAt != nil && trialEndsAt.After(now)

	switch {
	case s == "ACTIVE" || s == "ACCEPTED" || s == "APPROVED":
		if trialing {
			return StatusTrial
		}
		return StatusActive
	case s == "TRIAL" || s == "TRIALING" || strings.HasPrefix(s, "PENDING"):
		return StatusTrial
	case strings.HasPrefix(s, "CANCELLED") || strings.HasPrefix(s, "CANCELED"):
		if cancelAt != nil && cancelAt.After(now) {
			return StatusGrace
		}
		return StatusCancelled
	case s == "PAUSED" || s == "PAST_DUE" || s == "FROZEN" || s == "DECLINED" || s == "FAILED" || s == "SUSPENDED":
		return StatusPastDue
	case s == "EXPIRED":
		return StatusCancelled
	}

	if strict {
		return StatusPastDue
	}
	if trialing {
		return StatusTrial
	}
	return StatusActive
}

func normalizeRaw(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Dates carries the deadlines IsPlanStatusActive compares against.
type Dates struct {
	GraceEndsAt *time.Time
	TrialEndsAt *time.Time
	Now         time.Time
}

// IsPlanStatusActive reports whether a plan in status grants access at d.Now.
func IsPlanStatusActive(status Status, d Dates) bool {
	switch status {
	case StatusActive:
		return true
	case StatusTrial:
		return d.TrialEndsAt == nil || d.TrialEndsAt.After(d.Now)
	case StatusGrace:
		return d.GraceEndsAt == nil || d.GraceEndsAt.After(d.Now)
	default:
		return false
	}
}

// ShopDates extracts the deadlines of shop for IsPlanStatusActive.
func ShopDates(shop *store.Shop, now time.Time) Dates {
	return Dates{GraceEndsAt: shop.PlanGraceEndsAt, TrialEndsAt: shop.PlanTrialEndsAt, Now: now}
}

// AccessUntil returns the instant a shop's paid access ends, or nil when it
// is open-ended or already gone.
func AccessUntil(shop *store.Shop) *time.Time {
	if shop == nil {
		return nil
	}
	switch ParseStatus(shop.PlanStatus) {
	case StatusGrace:
		return shop.PlanGraceEndsAt
	case StatusTrial:
		return shop.PlanTrialEndsAt
	case StatusCancelled:
		if shop.PlanGraceEndsAt != nil {
			return shop.PlanGraceEndsAt
		}
		return shop.BillingCancelledAt
	default:
		return nil
	}
}

// HasProAccess reports whether the reconciled subscription of shop still
// grants its paid plan: an active status, or a cancellation whose access
// window has not closed yet.
func HasProAccess(shop *store.Shop, now time.Time) bool {
	if shop == nil {
		return false
	}
	status := ParseStatus(shop.PlanStatus)
	if IsPlanStatusActive(status, ShopDates(shop, now)) {
		return true
	}
	if status == StatusCancelled {
		if until := AccessUntil(shop); until != nil && until.After(now) {
			return true
		}
	}
	return false
}
