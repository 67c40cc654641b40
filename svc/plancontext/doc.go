// Package plancontext resolves the plan a request runs under.
//
// Resolver.Resolve loads (or creates) the shop for a domain, downgrades it
// to FREE when its paid subscription no longer grants access, and returns
// an immutable Context carrying the effective plan, its policy and the
// per-note version limit. Middleware does this once per request and stores
// the Context for handlers:
//
//	r.Use(plancontext.Middleware(resolver, shopify.NewIdentifier(cfg)))
//	...
//	pc := plancontext.MustFromContext(r.Context())
package plancontext
