// Package billing reconciles Shopify app subscriptions into the plan fields
// of a shop.
//
// A subscription payload arrives as loosely typed JSON from a webhook or
// from the Admin API. NormalizePayload reduces it to a Payload, MapStatus
// and ResolvePlanCode turn that into a local status and plan code, and
// Reconciler.SyncManagedSubscription persists the result in one
// transaction, retrying transient failures and recording exhausted ones on
// the shop row.
//
// IsPlanStatusActive is the predicate every quota and feature check depends
// on through the plan context.
package billing
