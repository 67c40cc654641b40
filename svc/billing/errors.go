package billing

import "errors"

var (
	ErrSyncFailed        = errors.New("billing.errors.sync_failed")
	ErrInvalidPayload    = errors.New("billing.errors.invalid_payload")
	ErrEmptyShopDomain   = errors.New("billing.errors.empty_shop_domain")
	ErrInvalidWebhook    = errors.New("billing.errors.invalid_webhook")
	ErrLedgerUnavailable = errors.New("billing.errors.ledger_unavailable")
)
