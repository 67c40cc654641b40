package api

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/handler"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
	"github.com/dmitrymomot/shopnotes/svc/versions"
)

type versionRequest struct {
	NoteID    uuid.UUID `path:"id" json:"-"`
	VersionID uuid.UUID `path:"vid" json:"-"`
}

type revertRequest struct {
	NoteID     uuid.UUID `path:"id" json:"-"`
	VersionID  uuid.UUID `path:"vid" json:"-"`
	Checkpoint *bool     `query:"checkpoint" json:"checkpoint"`
}

type renameRequest struct {
	NoteID    uuid.UUID `path:"id" json:"-"`
	VersionID uuid.UUID `path:"vid" json:"-"`
	Title     string    `json:"title"`
}

type revertView struct {
	Note       noteView `json:"note"`
	Checkpoint saveView `json:"checkpoint"`
}

func (a *API) listVersions(ctx handler.Context, req noteIDRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	list, meta, err := a.versions.List(ctx, pc, req.ID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(toVersionViews(list), handler.WithJSONMeta(meta))
}

// revertVersion restores a version. A checkpoint of the current content is
// taken unless checkpoint=false.
func (a *API) revertVersion(ctx handler.Context, req revertRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	checkpoint := req.Checkpoint == nil || *req.Checkpoint

	res, err := a.versions.Revert(ctx, pc, req.NoteID, req.VersionID, versions.RevertOptions{Checkpoint: checkpoint})
	if err != nil {
		return handler.Fail(err)
	}
	meta, err := versions.NewLedger(a.store.Versions()).BuildMeta(ctx, req.NoteID, pc, res.Checkpoint.InlineAlert)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(revertView{
		Note:       toNoteView(res.Note),
		Checkpoint: toSaveView(res.Checkpoint),
	}, handler.WithJSONMeta(meta))
}

func (a *API) renameVersion(ctx handler.Context, req renameRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	if err := a.versions.RenameVersion(ctx, pc, req.NoteID, req.VersionID, req.Title); err != nil {
		return handler.Fail(err)
	}
	return handler.Empty()
}

func (a *API) deleteVersion(ctx handler.Context, req versionRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	if err := a.versions.DeleteVersion(ctx, pc, req.NoteID, req.VersionID); err != nil {
		return handler.Fail(err)
	}
	meta, err := versions.NewLedger(a.store.Versions()).BuildMeta(ctx, req.NoteID, pc, "")
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(nil, handler.WithJSONMeta(meta))
}
