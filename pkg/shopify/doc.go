// Package shopify holds the small slice of the Shopify platform the service
// talks to: webhook HMAC verification, shop identification from App Bridge
// session tokens, and an Admin GraphQL client used to pull the current app
// subscription for manual billing reconciliation.
package shopify
