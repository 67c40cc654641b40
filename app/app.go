package app

import (
	"context"
	"errors"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/shopnotes/api"
	"github.com/dmitrymomot/shopnotes/pkg/clientip"
	"github.com/dmitrymomot/shopnotes/pkg/httpserver"
	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/pkg/requestid"
	"github.com/dmitrymomot/shopnotes/pkg/shopify"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/billing"
	"github.com/dmitrymomot/shopnotes/svc/plan"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
	"github.com/dmitrymomot/shopnotes/svc/versions"
)

var (
	ErrUnknownLedger       = errors.New("app.errors.unknown_webhook_ledger")
	ErrLedgerClientMissing = errors.New("app.errors.ledger_client_missing")
)

// NewLogger builds the process logger with the request-scoped extractors.
func NewLogger(cfg Config, opts ...logger.Option) *slog.Logger {
	base := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			plancontext.LoggerExtractor(),
		),
	}
	return logger.New(append(base, opts...)...)
}

// LoadCatalog reads the plan table from PLAN_CATALOG_PATH, or serves the
// built-in plans when it is unset.
func LoadCatalog(ctx context.Context, cfg Config) (*plan.Catalog, error) {
	src := plan.NewInMemSource()
	if cfg.PlanCatalogPath != "" {
		src = plan.NewYAMLSource(cfg.PlanCatalogPath)
	}
	return plan.NewCatalog(ctx, src)
}

func NewReconciler(st store.Store, cfg Config, log *slog.Logger) *billing.Reconciler {
	return billing.NewReconciler(st,
		billing.WithReconcilerLogger(log),
		billing.WithStrictStatusMapping(cfg.StrictStatusMapping),
	)
}

// NewLedger returns the delivery ledger selected by WEBHOOK_LEDGER. The redis
// backend needs a connected client.
func NewLedger(cfg Config, client *goredis.Client) (billing.DeliveryLedger, error) {
	switch cfg.WebhookLedger {
	case LedgerMemory, "":
		return billing.NewMemoryLedger(cfg.WebhookDedupeTTL), nil
	case LedgerRedis:
		if client == nil {
			return nil, ErrLedgerClientMissing
		}
		return billing.NewRedisLedger(client, cfg.WebhookDedupeTTL), nil
	default:
		return nil, ErrUnknownLedger
	}
}

// Server holds what NewAPI needs beyond the store.
type Server struct {
	Config  Config
	Shopify shopify.Config
	Catalog *plan.Catalog
	Ledger  billing.DeliveryLedger
	Checks  map[string]httpserver.Check
	Log     *slog.Logger
}

// NewAPI wires the entitlement engine and the webhook intake over st.
func NewAPI(st store.Store, s Server) *api.API {
	log := s.Log
	if log == nil {
		log = logger.Discard()
	}

	guard := plan.NewGuard(s.Catalog, st, plan.WithGuardLogger(log))
	vs := versions.NewService(st, versions.WithLogger(log))
	res := plancontext.NewResolver(st.Shops(), s.Catalog,
		plancontext.WithResolverLogger(log),
		plancontext.WithExtraFreeVersions(s.Config.FreeVersionLimitExtra),
	)

	webhookOpts := []billing.WebhookOption{billing.WithWebhookLogger(log)}
	if s.Ledger != nil {
		webhookOpts = append(webhookOpts, billing.WithDeliveryLedger(s.Ledger))
	}
	wh := billing.NewWebhookProcessor(s.Shopify.APISecret, NewReconciler(st, s.Config, log), webhookOpts...)

	return api.New(st, guard, vs, res, shopify.NewIdentifier(s.Shopify),
		api.WithLogger(log),
		api.WithWebhooks(wh),
		api.WithHealthChecks(s.Checks),
	)
}
