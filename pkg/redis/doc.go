// Package redis connects to Redis with retries and exposes a health probe.
// The client backs the webhook delivery ledger that drops duplicate Shopify
// deliveries.
package redis
