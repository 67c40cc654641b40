// Package api mounts the JSON API of the notes app on a chi router.
//
// Every /api route runs behind plancontext.Middleware, so handlers read the
// shop and its effective plan with plancontext.MustFromContext. Quota and
// feature checks go through plan.Guard before anything is written; version
// retention is delegated to versions.Service.
package api
