package billing

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Payload is a subscription reduced to the fields reconciliation needs.
type Payload struct {
	SubscriptionID    string
	Name              string
	Status            string
	TrialEndsAt       *time.Time
	CancelEffectiveAt *time.Time
	CurrentPeriodEnd  *time.Time
}

// Key lists are tried in order; Shopify REST webhooks use snake_case and
// GraphQL responses use camelCase.
var (
	keysID          = []string{"admin_graphql_api_id", "adminGraphqlApiId", "id", "subscription_id", "subscriptionId"}
	keysName        = []string{"name", "plan_name", "planName", "line_item_name", "lineItemName"}
	keysStatus      = []string{"status", "subscription_status", "subscriptionStatus"}
	keysTrialEnd    = []string{"trial_ends_on", "trialEndsOn", "trial_ends_at", "trialEndsAt", "trial_end", "trialEnd"}
	keysCancelAt    = []string{"cancellation_effective_date", "cancellationEffectiveDate", "cancel_at", "cancelAt", "cancelled_at", "cancelledAt"}
	keysPeriodEnd   = []string{"current_period_end", "currentPeriodEnd", "billing_on", "billingOn"}
	keysTrialDays   = []string{"trial_days", "trialDays"}
	keysCreatedAt   = []string{"created_at", "createdAt"}
	keysEnvelope    = []string{"app_subscription", "appSubscription"}
	keysLineItems   = []string{"line_items", "lineItems"}
	timeLayouts     = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05 -0700", time.DateOnly}
	errNotAnObject  = errors.New("payload is not a JSON object")
	errMissingState = errors.New("payload has no status")
)

// ParsePayload decodes a raw JSON body and normalizes it.
func ParsePayload(body []byte) (Payload, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return Payload{}, errors.Join(ErrInvalidPayload, err)
	}
	if m == nil {
		return Payload{}, errors.Join(ErrInvalidPayload, errNotAnObject)
	}
	return NormalizePayload(m)
}

// NormalizePayload reads a subscription from a loosely typed object,
// unwrapping an app_subscription envelope when present. A trial end is
// derived from trial_days and created_at when no explicit date is given.
func NormalizePayload(m map[string]any) (Payload, error) {
	for _, k := range keysEnvelope {
		if inner, ok := m[k].(map[string]any); ok {
			m = inner
			break
		}
	}

	p := Payload{
		SubscriptionID:    readString(m, keysID...),
		Name:              readString(m, keysName...),
		Status:            readString(m, keysStatus...),
		TrialEndsAt:       readTime(m, keysTrialEnd...),
		CancelEffectiveAt: readTime(m, keysCancelAt...),
		CurrentPeriodEnd:  readTime(m, keysPeriodEnd...),
	}
	if p.Name == "" {
		p.Name = lineItemName(m)
	}
	if p.TrialEndsAt == nil {
		if days, ok := readInt(m, keysTrialDays...); ok && days > 0 {
			if created := readTime(m, keysCreatedAt...); created != nil {
				end := created.AddDate(0, 0, days)
				p.TrialEndsAt = &end
			}
		}
	}
	if p.Status == "" {
		return p, errors.Join(ErrInvalidPayload, errMissingState)
	}
	return p, nil
}

func readString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func readInt(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if v == math.Trunc(v) {
				return int(v), true
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func readTime(m map[string]any, keys ...string) *time.Time {
	s := readString(m, keys...)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// lineItemName reads the name of the first line item, either directly or
// from its nested plan object.
func lineItemName(m map[string]any) string {
	for _, k := range keysLineItems {
		items, ok := m[k].([]any)
		if !ok || len(items) == 0 {
			continue
		}
		item, ok := items[0].(map[string]any)
		if !ok {
			continue
		}
		if name := readString(item, keysName...); name != "" {
			return name
		}
		if p, ok := item["plan"].(map[string]any); ok {
			if name := readString(p, keysName...); name != "" {
				return name
			}
		}
	}
	return ""
}
