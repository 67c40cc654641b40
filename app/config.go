package app

import "time"

// Ledger backends for webhook delivery dedupe.
const (
	LedgerRedis  = "redis"
	LedgerMemory = "memory"
)

type Config struct {
	Env                   string        `env:"APP_ENV" envDefault:"development"`         // Env is "production" or anything else for development.
	Name                  string        `env:"APP_NAME" envDefault:"shopnotes"`          // Name tags every log record.
	PlanCatalogPath       string        `env:"PLAN_CATALOG_PATH"`                        // PlanCatalogPath points at a YAML plan table; empty keeps the built-in plans.
	FreeVersionLimitExtra int           `env:"FREE_VERSION_LIMIT_EXTRA" envDefault:"0"`  // FreeVersionLimitExtra raises every limited version window.
	StrictStatusMapping   bool          `env:"STRICT_STATUS_MAPPING" envDefault:"false"` // StrictStatusMapping maps unknown subscription statuses to PAST_DUE instead of ACTIVE.
	WebhookDedupeTTL      time.Duration `env:"WEBHOOK_DEDUPE_TTL" envDefault:"24h"`      // WebhookDedupeTTL is how long a delivery ID is remembered.
	WebhookLedger         string        `env:"WEBHOOK_LEDGER" envDefault:"redis"`        // WebhookLedger is "redis" or "memory".
}
