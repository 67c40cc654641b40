package plancontext

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
)

// Context is the effective plan of one shop for one request. It is built
// by Resolver and must not be modified afterwards.
type Context struct {
	Shop     *store.Shop
	Plan     plan.Code
	Policy   plan.Policy
	IsActive bool
	// VersionLimit is the number of visible versions per note, or
	// plan.Unlimited.
	VersionLimit int64
	AccessUntil  *time.Time
}

// UnlimitedVersions reports whether saves never evict or hide versions.
func (c Context) UnlimitedVersions() bool {
	return c.VersionLimit == plan.Unlimited
}

// Subject is the view of c that plan.Guard.EnsureUsage checks.
func (c Context) Subject() plan.Subject {
	return plan.Subject{Shop: c.Shop, Code: c.Plan, IsActive: c.IsActive}
}

// Snapshot serializes the plan for clients.
func (c Context) Snapshot() plan.Snapshot {
	return plan.NewSnapshot(c.Shop, c.Policy, c.IsActive)
}

type contextKey struct{}

func WithContext(ctx context.Context, pc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, pc)
}

func FromContext(ctx context.Context) (Context, bool) {
	pc, ok := ctx.Value(contextKey{}).(Context)
	return pc, ok && pc.Shop != nil
}

// MustFromContext panics when no plan context is present. Use it only
// behind Middleware.
func MustFromContext(ctx context.Context) Context {
	pc, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoContext)
	}
	return pc
}

// LoggerExtractor adds shop_domain and plan to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		pc, ok := FromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.Group("shop",
			slog.String("domain", pc.Shop.Domain),
			slog.String("plan", pc.Plan.String()),
		), true
	}
}
