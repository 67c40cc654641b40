package plan_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
)

func TestSnapshot(t *testing.T) {
	t.Parallel()

	grace := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	shop := &store.Shop{
		Plan:                  "PRO",
		PlanStatus:            "GRACE",
		PlanManaged:           true,
		PlanGraceEndsAt:       &grace,
		BillingSubscriptionID: "gid://shopify/AppSubscription/1",
	}
	snap := plan.NewSnapshot(shop, plan.MustCatalog().Policy(plan.CodePro), true).
		WithUsage(map[plan.Resource]plan.UsageInfo{plan.ResourceNotes: {Quantity: 40, Limit: plan.Unlimited}})

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "PRO", body["code"])
	assert.Equal(t, "GRACE", body["status"])
	assert.Equal(t, true, body["managed"])
	assert.Equal(t, true, body["isActive"])
	assert.Equal(t, "2026-03-01T00:00:00Z", body["graceEndsAt"])
	assert.Nil(t, body["trialEndsAt"])
	assert.Equal(t, "gid://shopify/AppSubscription/1", body["subscriptionId"])
	assert.Equal(t, float64(-1), body["limits"].(map[string]any)["notes"])
	assert.Equal(t, float64(40), body["usage"].(map[string]any)["notes"].(map[string]any)["quantity"])

	free := plan.NewSnapshot(nil, plan.MustCatalog().Policy(plan.CodeFree), true)
	raw, err = json.Marshal(free)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"features":[]`)
	assert.NotContains(t, string(raw), `"usage"`)
}
