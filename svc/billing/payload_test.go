package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shopnotes/svc/billing"
)

func TestParsePayload(t *testing.T) {
	t.Parallel()

	t.Run("rest webhook envelope", func(t *testing.T) {
		t.Parallel()
		p, err := billing.ParsePayload([]byte(`{
			"app_subscription": {
				"admin_graphql_api_id": "gid://shopify/AppSubscription/1",
				"name": "Pro",
				"status": "CANCELLED",
				"cancellation_effective_date": "2026-03-20T00:00:00Z",
				"current_period_end": "2026-03-31T00:00:00Z"
			}
		}`))
		require.NoError(t, err)
		assert.Equal(t, "gid://shopify/AppSubscription/1", p.SubscriptionID)
		assert.Equal(t, "Pro", p.Name)
		assert.Equal(t, "CANCELLED", p.Status)
		require.NotNil(t, p.CancelEffectiveAt)
		assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), *p.CancelEffectiveAt)
		require.NotNil(t, p.CurrentPeriodEnd)
	})

	t.Run("graphql camel case", func(t *testing.T) {
		t.Parallel()
		p, err := billing.ParsePayload([]byte(`{
			"id": "gid://shopify/AppSubscription/2",
			"status": "ACTIVE",
			"currentPeriodEnd": "2026-04-01T10:00:00Z",
			"trialDays": 7,
			"createdAt": "2026-03-05T10:00:00Z",
			"lineItems": [{"plan": {"name": "Growth"}}]
		}`))
		require.NoError(t, err)
		assert.Equal(t, "Growth", p.Name)
		require.NotNil(t, p.TrialEndsAt)
		assert.Equal(t, time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC), *p.TrialEndsAt)
	})

	t.Run("explicit trial end wins over trial days", func(t *testing.T) {
		t.Parallel()
		p, err := billing.ParsePayload([]byte(`{"status":"active","trial_ends_on":"2026-03-15","trial_days":30,"created_at":"2026-03-01T00:00:00Z"}`))
		require.NoError(t, err)
		require.NotNil(t, p.TrialEndsAt)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *p.TrialEndsAt)
	})

	t.Run("numeric id", func(t *testing.T) {
		t.Parallel()
		p, err := billing.ParsePayload([]byte(`{"id": 4028497976, "status": "ACTIVE"}`))
		require.NoError(t, err)
		assert.Equal(t, "4028497976", p.SubscriptionID)
	})

	t.Run("unparseable dates are dropped", func(t *testing.T) {
		t.Parallel()
		p, err := billing.ParsePayload([]byte(`{"status":"ACTIVE","current_period_end":"next tuesday"}`))
		require.NoError(t, err)
		assert.Nil(t, p.CurrentPeriodEnd)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{`not json`, `null`, `[]`, `{"name":"Pro"}`} {
			_, err := billing.ParsePayload([]byte(body))
			assert.ErrorIs(t, err, billing.ErrInvalidPayload, body)
		}
	})
}
