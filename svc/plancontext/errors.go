package plancontext

import "errors"

var (
	ErrEmptyDomain       = errors.New("plancontext.errors.empty_domain")
	ErrResolveFailed     = errors.New("plancontext.errors.resolve_failed")
	ErrNoContext         = errors.New("plancontext.errors.no_plan_context")
	ErrShopNotIdentified = errors.New("plancontext.errors.shop_not_identified")
)
