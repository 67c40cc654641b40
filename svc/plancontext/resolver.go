package plancontext

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/billing"
	"github.com/dmitrymomot/shopnotes/svc/plan"
)

type Resolver struct {
	shops     store.ShopStore
	catalog   *plan.Catalog
	log       *slog.Logger
	extraFree int
}

type ResolverOption func(*Resolver)

func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithExtraFreeVersions raises the visible-version limit of every limited
// plan by n on top of each shop's own ExtraFreeVersions.
func WithExtraFreeVersions(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.extraFree = n
		}
	}
}

func NewResolver(shops store.ShopStore, catalog *plan.Catalog, opts ...ResolverOption) *Resolver {
	r := &Resolver{shops: shops, catalog: catalog, log: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("plancontext"))
	return r
}

// Resolve returns the plan context of domain at now. A shop on a paid plan
// whose subscription no longer grants access is downgraded to FREE and
// saved before the context is returned.
func (r *Resolver) Resolve(ctx context.Context, domain string, now time.Time) (Context, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return Context{}, ErrEmptyDomain
	}

	shop, err := r.shops.UpsertByDomain(ctx, domain)
	if err != nil {
		return Context{}, errors.Join(ErrResolveFailed, err)
	}
	shop, code, err := r.settle(ctx, shop, now)
	if err != nil {
		return Context{}, errors.Join(ErrResolveFailed, err)
	}
	shop.Plan = code.String()

	policy := r.catalog.Policy(code)
	limit := int64(plan.Unlimited)
	if !policy.IsUnlimited(plan.ResourceVersions) {
		limit = policy.Limit(plan.ResourceVersions) + int64(max(shop.ExtraFreeVersions, 0)) + int64(r.extraFree)
	}

	isActive := !code.IsPaid() || billing.IsPlanStatusActive(billing.ParseStatus(shop.PlanStatus), billing.ShopDates(shop, now))

	return Context{
		Shop:         shop,
		Plan:         code,
		Policy:       policy,
		IsActive:     isActive,
		VersionLimit: limit,
		AccessUntil:  billing.AccessUntil(shop),
	}, nil
}

const downgradeAttempts = 3

// settle downgrades a paid shop that lost access. The write lands only if
// the row still holds what was read; a billing sync that committed in
// between wins and the fresh row is judged again.
func (r *Resolver) settle(ctx context.Context, shop *store.Shop, now time.Time) (*store.Shop, plan.Code, error) {
	for range downgradeAttempts {
		code := plan.NormalizeCode(shop.Plan)
		if !code.IsPaid() || billing.HasProAccess(shop, now) {
			return shop, code, nil
		}
		status := shop.PlanStatus
		ok, err := r.shops.DowngradeToFree(ctx, shop)
		if err != nil {
			return nil, plan.CodeFree, err
		}
		if ok {
			r.log.WarnContext(ctx, "paid plan without access, downgraded to free",
				logger.ShopDomain(shop.Domain),
				logger.Plan(code.String()),
				slog.String("status", status),
			)
			return shop, plan.CodeFree, nil
		}
		if shop, err = r.shops.GetByDomain(ctx, shop.Domain); err != nil {
			return nil, plan.CodeFree, err
		}
	}

	// Still contended: answer from the last read and leave the row alone.
	code := plan.NormalizeCode(shop.Plan)
	if code.IsPaid() && !billing.HasProAccess(shop, now) {
		code = plan.CodeFree
	}
	return shop, code, nil
}
