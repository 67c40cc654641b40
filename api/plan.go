package api

import (
	"errors"
	"time"

	"github.com/dmitrymomot/shopnotes/handler"
	"github.com/dmitrymomot/shopnotes/svc/plan"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
)

type planMeta struct {
	VersionLimit int64      `json:"versionLimit"`
	AccessUntil  *time.Time `json:"accessUntil"`
}

type emptyRequest struct{}

func (a *API) getPlan(ctx handler.Context, _ emptyRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	usage, err := a.guard.Usage(ctx, pc.Shop.ID, pc.Plan)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(pc.Snapshot().WithUsage(usage), handler.WithJSONMeta(planMeta{
		VersionLimit: pc.VersionLimit,
		AccessUntil:  pc.AccessUntil,
	}))
}

type usageRequest struct {
	Resource string `path:"resource" json:"-"`
}

type usageVerdict struct {
	Resource plan.Resource `json:"resource"`
	Allowed  bool          `json:"allowed"`
}

// checkUsage answers whether the shop may add one more of a resource.
func (a *API) checkUsage(ctx handler.Context, req usageRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	res, err := plan.ParseResource(req.Resource)
	if err != nil || res.PerNote() {
		return handler.Fail(errors.Join(handler.ErrBadRequest, plan.ErrInvalidResource))
	}
	if err := a.guard.EnsureUsage(ctx, pc.Subject(), res); err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(usageVerdict{Resource: res, Allowed: true})
}
