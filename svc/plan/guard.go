package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/store"
)

// Subject is the caller of a usage check: the shop, its effective plan and
// whether that plan currently grants access.
type Subject struct {
	Shop     *store.Shop
	Code     Code
	IsActive bool
}

// Guard makes allow/deny decisions from a Catalog and a usage counter.
type Guard struct {
	catalog *Catalog
	counter store.Counter
	log     *slog.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

func WithGuardLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

func NewGuard(catalog *Catalog, counter store.Counter, opts ...GuardOption) *Guard {
	g := &Guard{
		catalog: catalog,
		counter: counter,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) Catalog() *Catalog { return g.catalog }

// EnsureCanCreate fails with a *PlanError when the shop already holds as many
// r as its plan allows. Unlimited resources pass without a count query.
func (g *Guard) EnsureCanCreate(ctx context.Context, r Resource, shopID uuid.UUID, code Code) error {
	if r.PerNote() {
		return ErrInvalidResource
	}

	limit := g.catalog.Limit(code, r)
	if limit == Unlimited {
		return nil
	}

	if limit > 0 {
		count, err := g.count(ctx, shopID, r)
		if err != nil {
			return err
		}
		if count < limit {
			return nil
		}
	}

	perr := NewPlanError(limitCode(r))
	g.log.InfoContext(ctx, "plan limit reached",
		logger.Component("plan_guard"),
		logger.ShopID(shopID),
		logger.Plan(string(code)),
		slog.String("resource", string(r)),
		slog.Int64("limit", limit),
	)
	return perr
}

// EnsureFeatureEnabled is a pure check of the plan's feature flags.
func (g *Guard) EnsureFeatureEnabled(f Feature, code Code) error {
	if g.catalog.HasFeature(code, f) {
		return nil
	}
	switch f {
	case FeatureContacts:
		return NewPlanError(CodeFeatureContactsDisabled)
	case FeatureNoteTags:
		return NewPlanError(CodeFeatureNoteTagsDisabled)
	default:
		return fmt.Errorf("plan: unknown feature %q", f)
	}
}

// EnsureUsage is the broader access check behind the usage endpoint. It
// returns a *PlanAccessError describing why s may not add another r.
func (g *Guard) EnsureUsage(ctx context.Context, s Subject, r Resource) error {
	if s.Shop == nil {
		return &PlanAccessError{
			Reason:  ReasonShopNotFound,
			Message: "Shop not found.",
		}
	}
	if r.PerNote() {
		return ErrInvalidResource
	}

	policy := g.catalog.Policy(s.Code)
	deny := func(reason AccessReason, msg, detail string) error {
		snap := NewSnapshot(s.Shop, policy, s.IsActive)
		return &PlanAccessError{Reason: reason, Message: msg, Detail: detail, Plan: &snap}
	}

	if s.Code.IsPaid() && !s.IsActive {
		return deny(ReasonPlanInactive, "Your subscription is not active.", s.Shop.PlanStatus)
	}

	limit := policy.Limit(r)
	switch limit {
	case Unlimited:
		return nil
	case 0:
		return deny(ReasonPlanRestricted, fmt.Sprintf("Your plan does not include %s.", r), string(r))
	}

	count, err := g.count(ctx, s.Shop.ID, r)
	if err != nil {
		return err
	}
	if count >= limit {
		return deny(ReasonQuotaExceeded,
			fmt.Sprintf("You have used all %d %s included in your plan.", limit, r),
			fmt.Sprintf("%s: %d/%d", r, count, limit),
		)
	}
	return nil
}

// Usage reports quantity and limit for every shop-level resource of code.
func (g *Guard) Usage(ctx context.Context, shopID uuid.UUID, code Code) (map[Resource]UsageInfo, error) {
	policy := g.catalog.Policy(code)
	out := make(map[Resource]UsageInfo, len(Resources))
	for _, r := range Resources {
		if r.PerNote() {
			continue
		}
		count, err := g.count(ctx, shopID, r)
		if err != nil {
			return nil, err
		}
		out[r] = UsageInfo{Quantity: count, Limit: policy.Limit(r)}
	}
	return out, nil
}

func (g *Guard) count(ctx context.Context, shopID uuid.UUID, r Resource) (int64, error) {
	n, err := g.counter.Count(ctx, shopID, string(r))
	if err != nil {
		return 0, errors.Join(ErrFailedToCountUsage, err)
	}
	return n, nil
}

func limitCode(r Resource) ErrorCode {
	switch r {
	case ResourceNotes:
		return CodeLimitNotes
	case ResourceFolders:
		return CodeLimitFolders
	case ResourceVersions:
		return CodeLimitVersions
	default:
		return CodeFeatureContactsDisabled
	}
}
