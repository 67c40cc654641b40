package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
)

type shops struct{ s *Store }

const shopColumns = `id, domain, shopify_shop_id, plan, plan_status, plan_managed,
	plan_trial_ends_at, plan_grace_ends_at, plan_renews_at, plan_activated_at,
	billing_subscription_id, billing_cancelled_at, billing_last_sync_at, billing_last_sync_error,
	extra_free_versions, version_limit_prompted_at, created_at, updated_at`

func scanShop(row scanner) (*store.Shop, error) {
	var sh store.Shop
	err := row.Scan(
		&sh.ID, &sh.Domain, &sh.ShopifyShopID, &sh.Plan, &sh.PlanStatus, &sh.PlanManaged,
		&sh.PlanTrialEndsAt, &sh.PlanGraceEndsAt, &sh.PlanRenewsAt, &sh.PlanActivatedAt,
		&sh.BillingSubscriptionID, &sh.BillingCancelledAt, &sh.BillingLastSyncAt, &sh.BillingLastSyncError,
		&sh.ExtraFreeVersions, &sh.VersionLimitPromptedAt, &sh.CreatedAt, &sh.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// UpsertByDomain relies on the unique domain index so concurrent first
// requests of a shop converge on one row.
func (r shops) UpsertByDomain(ctx context.Context, domain string) (*store.Shop, error) {
	if domain == "" {
		return nil, store.ErrInvalidArgument
	}
	now := r.s.now().UTC()
	sh, err := scanShop(r.s.q.QueryRowContext(ctx, `
		INSERT INTO shops (id, domain, plan, plan_status, created_at, updated_at)
		VALUES ($1, $2, 'FREE', 'NONE', $3, $3)
		ON CONFLICT (domain) DO UPDATE SET domain = EXCLUDED.domain
		RETURNING `+shopColumns,
		uuid.New(), domain, now,
	))
	if err != nil {
		return nil, mapErr("upsert shop", err)
	}
	return sh, nil
}

func (r shops) GetByDomain(ctx context.Context, domain string) (*store.Shop, error) {
	sh, err := scanShop(r.s.q.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM shops WHERE domain = $1`, domain))
	if err != nil {
		return nil, mapErr("get shop", err)
	}
	return sh, nil
}

func (r shops) GetForUpdate(ctx context.Context, id uuid.UUID) (*store.Shop, error) {
	sh, err := scanShop(r.s.q.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapErr("lock shop", err)
	}
	return sh, nil
}

func (r shops) Update(ctx context.Context, sh *store.Shop) error {
	now := r.s.now().UTC()
	res, err := r.s.q.ExecContext(ctx, `
		UPDATE shops SET
			shopify_shop_id = $2, plan = $3, plan_status = $4, plan_managed = $5,
			plan_trial_ends_at = $6, plan_grace_ends_at = $7, plan_renews_at = $8, plan_activated_at = $9,
			billing_subscription_id = $10, billing_cancelled_at = $11, billing_last_sync_at = $12,
			billing_last_sync_error = $13, extra_free_versions = $14, version_limit_prompted_at = $15,
			updated_at = $16
		WHERE id = $1`,
		sh.ID, sh.ShopifyShopID, sh.Plan, sh.PlanStatus, sh.PlanManaged,
		sh.PlanTrialEndsAt, sh.PlanGraceEndsAt, sh.PlanRenewsAt, sh.PlanActivatedAt,
		sh.BillingSubscriptionID, sh.BillingCancelledAt, sh.BillingLastSyncAt,
		sh.BillingLastSyncError, sh.ExtraFreeVersions, sh.VersionLimitPromptedAt,
		now,
	)
	if err := expectOne("update shop", res, err); err != nil {
		return err
	}
	sh.UpdatedAt = now
	return nil
}

// DowngradeToFree blocks behind a reconciler holding the row lock and then
// re-checks its conditions against the committed row.
func (r shops) DowngradeToFree(ctx context.Context, sh *store.Shop) (bool, error) {
	now := r.s.now().UTC()
	res, err := r.s.q.ExecContext(ctx, `
		UPDATE shops SET plan = 'FREE', plan_managed = FALSE, updated_at = $5
		WHERE id = $1 AND plan = $2 AND plan_status = $3
			AND billing_last_sync_at IS NOT DISTINCT FROM $4`,
		sh.ID, sh.Plan, sh.PlanStatus, sh.BillingLastSyncAt, now,
	)
	if err != nil {
		return false, mapErr("downgrade shop", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("downgrade shop: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	sh.Plan = "FREE"
	sh.PlanManaged = false
	sh.UpdatedAt = now
	return true, nil
}

func (r shops) SetVersionLimitPromptedAt(ctx context.Context, shopID uuid.UUID, at time.Time) error {
	res, err := r.s.q.ExecContext(ctx,
		`UPDATE shops SET version_limit_prompted_at = $2, updated_at = $3 WHERE id = $1`,
		shopID, at, r.s.now().UTC(),
	)
	return expectOne("set version prompt", res, err)
}

func (r shops) RecordSyncFailure(ctx context.Context, shopID uuid.UUID, at time.Time, msg string) error {
	res, err := r.s.q.ExecContext(ctx,
		`UPDATE shops SET billing_last_sync_at = $2, billing_last_sync_error = $3, updated_at = $2 WHERE id = $1`,
		shopID, at, msg,
	)
	return expectOne("record sync failure", res, err)
}
