package billing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
)

const maxSyncErrorLength = 500

// Result is the plan state a sync left on the shop.
type Result struct {
	Shop   *store.Shop
	Plan   plan.Code
	Status Status
}

type Reconciler struct {
	store   store.Store
	log     *slog.Logger
	now     func() time.Time
	backoff func() retry.Backoff
	strict  bool
}

type ReconcilerOption func(*Reconciler)

func WithReconcilerLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithBackoff replaces the retry schedule. The factory is called once per
// sync because backoffs are stateful.
func WithBackoff(fn func() retry.Backoff) ReconcilerOption {
	return func(r *Reconciler) {
		if fn != nil {
			r.backoff = fn
		}
	}
}

// WithStrictStatusMapping maps unrecognized provider statuses to PAST_DUE
// instead of ACTIVE.
func WithStrictStatusMapping(strict bool) ReconcilerOption {
	return func(r *Reconciler) { r.strict = strict }
}

// DefaultBackoff makes three attempts, waiting 100ms then 200ms, each wait
// capped at one second.
func DefaultBackoff() retry.Backoff {
	b := retry.NewExponential(100 * time.Millisecond)
	b = retry.WithCappedDuration(time.Second, b)
	return retry.WithMaxRetries(2, b)
}

func NewReconciler(s store.Store, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:   s,
		log:     logger.Discard(),
		now:     time.Now,
		backoff: DefaultBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("billing"))
	return r
}

// SyncManagedSubscription upserts the shop for domain and applies p to it
// in one transaction. Transient failures are retried; once retries are
// exhausted the failure is stamped on the shop and ErrSyncFailed returned.
func (r *Reconciler) SyncManagedSubscription(ctx context.Context, domain string, p Payload) (Result, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return Result{}, ErrEmptyShopDomain
	}
	log := r.log.With(logger.ShopDomain(domain))

	var (
		res     Result
		attempt int
	)
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		err := r.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
			var err error
			res, err = r.apply(ctx, tx, domain, p)
			return err
		})
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		log.WarnContext(ctx, "billing sync attempt failed", logger.RetryCount(attempt), logger.Error(err))
		return retry.RetryableError(err)
	})
	if err == nil {
		log.InfoContext(ctx, "billing sync applied",
			logger.Plan(res.Plan.String()),
			slog.String("status", res.Status.String()),
		)
		return res, nil
	}

	r.recordFailure(ctx, log, domain, err)
	return Result{}, errors.Join(ErrSyncFailed, err)
}

func (r *Reconciler) apply(ctx context.Context, tx store.Store, domain string, p Payload) (Result, error) {
	shop, err := tx.Shops().UpsertByDomain(ctx, domain)
	if err != nil {
		return Result{}, err
	}
	if shop, err = tx.Shops().GetForUpdate(ctx, shop.ID); err != nil {
		return Result{}, err
	}

	now := r.now().UTC()
	cancelAt := p.CancelEffectiveAt
	if cancelAt == nil {
		cancelAt = p.CurrentPeriodEnd
	}
	status := MapStatus(p.Status, p.TrialEndsAt, cancelAt, now, r.strict)

	if p.SubscriptionID != "" {
		shop.BillingSubscriptionID = p.SubscriptionID
	}
	shop.PlanStatus = status.String()
	shop.PlanRenewsAt = p.CurrentPeriodEnd

	switch status {
	case StatusCancelled:
		shop.Plan = plan.CodeFree.String()
		shop.PlanManaged = false
		shop.PlanTrialEndsAt = nil
		shop.PlanGraceEndsAt = nil
		shop.PlanRenewsAt = nil
		if shop.BillingCancelledAt == nil {
			shop.BillingCancelledAt = timePtr(now)
		}
	default:
		if p.Name != "" {
			shop.Plan = ResolvePlanCode(p.Name).String()
		}
		shop.PlanManaged = true
		shop.PlanTrialEndsAt = p.TrialEndsAt
		shop.PlanGraceEndsAt = nil
		if status == StatusGrace {
			shop.PlanGraceEndsAt = cancelAt
			if shop.BillingCancelledAt == nil {
				shop.BillingCancelledAt = timePtr(now)
			}
		}
		if shop.PlanActivatedAt == nil && (status == StatusActive || status == StatusTrial) {
			shop.PlanActivatedAt = timePtr(now)
		}
	}

	shop.BillingLastSyncAt = timePtr(now)
	shop.BillingLastSyncError = ""

	if err := tx.Shops().Update(ctx, shop); err != nil {
		return Result{}, err
	}
	return Result{Shop: shop, Plan: plan.NormalizeCode(shop.Plan), Status: status}, nil
}

// recordFailure stamps sync health outside the failed transaction. Its own
// errors are logged only; the caller already gets ErrSyncFailed.
func (r *Reconciler) recordFailure(ctx context.Context, log *slog.Logger, domain string, cause error) {
	ctx = context.WithoutCancel(ctx)
	log.ErrorContext(ctx, "billing sync failed", logger.Error(cause))

	shop, err := r.store.Shops().UpsertByDomain(ctx, domain)
	if err != nil {
		log.ErrorContext(ctx, "record billing sync failure", logger.Error(err))
		return
	}
	if err := r.store.Shops().RecordSyncFailure(ctx, shop.ID, r.now().UTC(), truncate(cause.Error(), maxSyncErrorLength)); err != nil {
		log.ErrorContext(ctx, "record billing sync failure", logger.Error(err))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func timePtr(t time.Time) *time.Time { return &t }
