// Package handler provides typed HTTP handlers for the JSON API.
//
// A HandlerFunc receives a bound request struct and returns a Response.
// Wrap turns it into an http.HandlerFunc, running binders in order and
// routing binding and rendering failures to an ErrorHandler:
//
//	type renameRequest struct {
//		NoteID    uuid.UUID `path:"id"`
//		VersionID uuid.UUID `path:"vid"`
//		Title     string    `json:"title"`
//	}
//
//	func rename(ctx handler.Context, req renameRequest) handler.Response {
//		if err := svc.RenameVersion(ctx, pc, req.NoteID, req.VersionID, req.Title); err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.Empty()
//	}
//
//	r.Patch("/api/notes/{id}/versions/{vid}", handler.Wrap(rename,
//		handler.WithBinders[renameRequest](binder.Path(chi.URLParam), binder.JSON()),
//	))
//
// # Errors
//
// JSON and JSONError render errors inside the {data, meta, error} envelope.
// Plan refusals keep their machine-readable codes: a *plan.PlanError becomes
// {code, message, upgradeHint} with status 403, and a *plan.PlanAccessError
// is rendered through its JSON form. store.ErrNotFound maps to 404 and
// binder failures to 400. Anything else is a 500 with a generic message.
package handler
