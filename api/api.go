package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/shopnotes/handler"
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

type webhookProcessor interface {
	Process(ctx context.Context, h http.Header, body []byte) (billing.Outcome, error)
}

type API struct {
	store    store.Store
	guard    *plan.Guard
	versions *versions.Service
	resolver *plancontext.Resolver
	identify shopify.Identifier
	webhooks webhookProcessor
	checks   map[string]httpserver.Check
	log      *slog.Logger
	errors   handler.ErrorHandler
	now      func() time.Time
}

type Option func(*API)

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *API) {
		if now != nil {
			a.now = now
		}
	}
}

// WithWebhooks mounts POST /webhooks/shopify.
func WithWebhooks(p webhookProcessor) Option {
	return func(a *API) { a.webhooks = p }
}

// WithHealthChecks sets the checks reported by GET /healthz.
func WithHealthChecks(checks map[string]httpserver.Check) Option {
	return func(a *API) { a.checks = checks }
}

func New(st store.Store, guard *plan.Guard, vs *versions.Service, res *plancontext.Resolver, id shopify.Identifier, opts ...Option) *API {
	a := &API{
		store:    st,
		guard:    guard,
		versions: vs,
		resolver: res,
		identify: id,
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(logger.Component("api"))
	a.errors = handler.NewErrorHandler(a.log)
	return a
}

// Router builds the HTTP handler of the whole service.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthHandler(a.log, 2*time.Second, a.checks))
	if a.webhooks != nil {
		r.Post("/webhooks/shopify", a.shopifyWebhook)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(plancontext.Middleware(a.resolver, a.identify,
			plancontext.WithErrorHandler(a.planContextError),
			plancontext.WithMiddlewareClock(a.now),
		))

		r.Get("/plan", wrap(a, a.getPlan))
		r.Get("/plan/usage/{resource}", wrap(a, a.checkUsage))

		r.Get("/notes", wrap(a, a.listNotes))
		r.Post("/notes", wrap(a, a.createNote))
		r.Get("/notes/{id}", wrap(a, a.getNote))
		r.Put("/notes/{id}", wrap(a, a.updateNote))
		r.Delete("/notes/{id}", wrap(a, a.deleteNote))

		r.Get("/notes/{id}/versions", wrap(a, a.listVersions))
		r.Post("/notes/{id}/versions/{vid}/revert", wrap(a, a.revertVersion))
		r.Patch("/notes/{id}/versions/{vid}", wrap(a, a.renameVersion))
		r.Delete("/notes/{id}/versions/{vid}", wrap(a, a.deleteVersion))

		r.Get("/folders", wrap(a, a.listFolders(false)))
		r.Post("/folders", wrap(a, a.createFolder(false)))
		r.Delete("/folders/{id}", wrap(a, a.deleteFolder(false)))

		r.Get("/contacts", wrap(a, a.listContacts))
		r.Post("/contacts", wrap(a, a.createContact))
		r.Delete("/contacts/{id}", wrap(a, a.deleteContact))
		r.Get("/contact-folders", wrap(a, a.listFolders(true)))
		r.Post("/contact-folders", wrap(a, a.createFolder(true)))
		r.Delete("/contact-folders/{id}", wrap(a, a.deleteFolder(true)))
	})

	return r
}

// wrap binds path, query and, for requests with a body, JSON fields of R.
func wrap[R any](a *API, h handler.HandlerFunc[R]) http.HandlerFunc {
	bindBody := func(r *http.Request, v any) error {
		if r.ContentLength == 0 && r.Header.Get("Content-Type") == "" {
			return nil
		}
		return binderJSON(r, v)
	}
	return handler.Wrap(h,
		handler.WithBinders[R](bindBody, binderPath, binderQuery),
		handler.WithErrorHandler[R](a.errors),
	)
}

func (a *API) planContextError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, plancontext.ErrShopNotIdentified) {
		err = errors.Join(handler.ErrUnauthorized, err)
	}
	handler.WriteError(a.log, w, r, err)
}
