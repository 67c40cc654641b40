package plan

import (
	"maps"
	"time"

	"github.com/dmitrymomot/shopnotes/store"
)

// Snapshot is the client-facing view of a shop's plan. Unlimited limits are
// serialized as -1.
type Snapshot struct {
	Code           Code                   `json:"code"`
	Status         string                 `json:"status"`
	Managed        bool                   `json:"managed"`
	IsActive       bool                   `json:"isActive"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Limits         map[Resource]int64     `json:"limits"`
	Features       []Feature              `json:"features"`
	TrialEndsAt    *time.Time             `json:"trialEndsAt"`
	GraceEndsAt    *time.Time             `json:"graceEndsAt"`
	RenewsAt       *time.Time             `json:"renewsAt"`
	ActivatedAt    *time.Time             `json:"activatedAt"`
	SubscriptionID string                 `json:"subscriptionId,omitempty"`
	Usage          map[Resource]UsageInfo `json:"usage,omitempty"`
}

func NewSnapshot(shop *store.Shop, policy Policy, isActive bool) Snapshot {
	features := policy.Features
	if features == nil {
		features = []Feature{}
	}
	snap := Snapshot{
		Code:        policy.Code,
		IsActive:    isActive,
		Title:       policy.Title,
		Description: policy.Description,
		Limits:      maps.Clone(policy.Limits),
		Features:    features,
	}
	if shop == nil {
		return snap
	}

	snap.Status = shop.PlanStatus
	snap.Managed = shop.PlanManaged
	snap.TrialEndsAt = shop.PlanTrialEndsAt
	snap.GraceEndsAt = shop.PlanGraceEndsAt
	snap.RenewsAt = shop.PlanRenewsAt
	snap.ActivatedAt = shop.PlanActivatedAt
	snap.SubscriptionID = shop.BillingSubscriptionID
	return snap
}

// WithUsage returns a copy of s carrying usage.
func (s Snapshot) WithUsage(usage map[Resource]UsageInfo) Snapshot {
	s.Usage = maps.Clone(usage)
	return s
}
