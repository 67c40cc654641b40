package versions

import (
	"context"
	"time"

	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
)

// PromptCooldown is the minimum time between two upgrade prompts for the
// version limit.
const PromptCooldown = 48 * time.Hour

func IsWithinVersionPromptCooldown(shop *store.Shop, now time.Time) bool {
	if shop == nil || shop.VersionLimitPromptedAt == nil {
		return false
	}
	return now.Sub(*shop.VersionLimitPromptedAt) < PromptCooldown
}

// buildVersionLimitPlanError returns LIMIT_VERSIONS. Outside the cooldown
// it records the prompt on shop and sets UpgradeHint; inside it the hint is
// cleared so clients skip the upgrade modal.
func buildVersionLimitPlanError(ctx context.Context, shops store.ShopStore, shop *store.Shop, now time.Time) error {
	perr := plan.NewPlanError(plan.CodeLimitVersions)
	if IsWithinVersionPromptCooldown(shop, now) {
		perr.UpgradeHint = false
		return perr
	}
	if err := shops.SetVersionLimitPromptedAt(ctx, shop.ID, now); err != nil {
		return err
	}
	shop.VersionLimitPromptedAt = &now
	return perr
}
