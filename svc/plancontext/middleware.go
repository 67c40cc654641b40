package plancontext

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/shopnotes/pkg/shopify"
)

// ErrorHandler writes the response for a request whose plan context could
// not be resolved.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type resolver interface {
	Resolve(ctx context.Context, domain string, now time.Time) (Context, error)
}

type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	now          func() time.Time
}

type MiddlewareOption func(*middlewareConfig)

func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithSkipPaths lets requests under the given path prefixes through without
// a plan context.
func WithSkipPaths(prefixes ...string) MiddlewareOption {
	return func(c *middlewareConfig) { c.skipPaths = append(c.skipPaths, prefixes...) }
}

func WithMiddlewareClock(now func() time.Time) MiddlewareOption {
	return func(c *middlewareConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Middleware identifies the shop of each request, resolves its plan and
// stores the Context for downstream handlers.
func Middleware(res resolver, id shopify.Identifier, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{errorHandler: defaultErrorHandler, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			domain, err := id.Identify(r)
			if err == nil && domain == "" {
				err = shopify.ErrShopNotIdentified
			}
			if err != nil {
				cfg.errorHandler(w, r, errors.Join(ErrShopNotIdentified, err))
				return
			}

			pc, err := res.Resolve(r.Context(), domain, cfg.now())
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), pc)))
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrShopNotIdentified):
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
