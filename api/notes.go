package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/shopnotes/handler"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
	"github.com/dmitrymomot/shopnotes/svc/versions"
)

type noteIDRequest struct {
	ID uuid.UUID `path:"id" json:"-"`
}

type listNotesRequest struct {
	FolderID *uuid.UUID `query:"folderId" json:"-"`
}

type createNoteRequest struct {
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	FolderID   *uuid.UUID  `json:"folderId"`
	Tags       []string    `json:"tags"`
	Pinned     bool        `json:"pinned"`
	ContactIDs []uuid.UUID `json:"contactIds"`
}

type updateNoteRequest struct {
	ID         uuid.UUID       `path:"id" json:"-"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	FolderID   *uuid.UUID      `json:"folderId"`
	Tags       []string        `json:"tags"`
	Pinned     *bool           `json:"pinned"`
	ContactIDs []uuid.UUID     `json:"contactIds"`
	SaveType   store.SaveType  `json:"saveType"`
	Label      string          `json:"versionTitle"`
	Snapshot   json.RawMessage `json:"snapshot"`
}

type noteSaveMeta struct {
	Save     *saveView      `json:"save,omitempty"`
	Versions *versions.Meta `json:"versions,omitempty"`
}

// normalizeTags trims, NFC-normalizes and dedupes tags, keeping the first
// occurrence order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = norm.NFC.String(strings.TrimSpace(t))
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// checkNoteFeatures gates tags and contact mentions. Tags only count when
// they change, so notes tagged on a paid plan stay editable after a
// downgrade.
func (a *API) checkNoteFeatures(pc plancontext.Context, oldTags, newTags []string, contactIDs []uuid.UUID) error {
	if len(newTags) > 0 && !slices.Equal(oldTags, newTags) {
		if err := a.guard.EnsureFeatureEnabled(plan.FeatureNoteTags, pc.Plan); err != nil {
			return err
		}
	}
	if len(contactIDs) > 0 {
		if err := a.guard.EnsureFeatureEnabled(plan.FeatureContacts, pc.Plan); err != nil {
			return err
		}
	}
	return nil
}

func (a *API) listNotes(ctx handler.Context, req listNotesRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	notes, err := a.store.Notes().List(ctx, pc.Shop.ID, store.NoteFilter{FolderID: req.FolderID})
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(mapSlice(notes, toNoteView))
}

func (a *API) createNote(ctx handler.Context, req createNoteRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	tags := normalizeTags(req.Tags)

	if err := a.guard.EnsureCanCreate(ctx, plan.ResourceNotes, pc.Shop.ID, pc.Plan); err != nil {
		return handler.Fail(err)
	}
	if err := a.checkNoteFeatures(pc, nil, tags, req.ContactIDs); err != nil {
		return handler.Fail(err)
	}

	now := a.now().UTC()
	n := &store.Note{
		ShopID:    pc.Shop.ID,
		FolderID:  req.FolderID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Pinned {
		n.PinnedAt = &now
	}

	err := a.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Notes().Create(ctx, n); err != nil {
			return err
		}
		if len(req.ContactIDs) == 0 {
			return nil
		}
		return tx.Notes().SetMentions(ctx, pc.Shop.ID, n.ID, req.ContactIDs)
	})
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(toNoteView(n), handler.WithJSONStatus(http.StatusCreated))
}

func (a *API) getNote(ctx handler.Context, req noteIDRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	n, err := a.store.Notes().Get(ctx, pc.Shop.ID, req.ID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(toNoteView(n))
}

// updateNote persists the note and, when saveType is set, records a version
// under the save policy. A refused version does not undo the note update.
func (a *API) updateNote(ctx handler.Context, req updateNoteRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	if req.SaveType != "" && !req.SaveType.Valid() {
		return handler.Fail(handler.FieldErrors{"saveType": "must be MANUAL or AUTO"})
	}

	n, err := a.store.Notes().Get(ctx, pc.Shop.ID, req.ID)
	if err != nil {
		return handler.Fail(err)
	}
	tags := normalizeTags(req.Tags)
	if err := a.checkNoteFeatures(pc, n.Tags, tags, req.ContactIDs); err != nil {
		return handler.Fail(err)
	}

	now := a.now().UTC()
	n.Title = strings.TrimSpace(req.Title)
	n.Content = req.Content
	n.FolderID = req.FolderID
	n.Tags = tags
	n.UpdatedAt = now
	if req.Pinned != nil {
		switch {
		case !*req.Pinned:
			n.PinnedAt = nil
		case n.PinnedAt == nil:
			n.PinnedAt = &now
		}
	}

	err = a.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Notes().Update(ctx, n); err != nil {
			return err
		}
		if req.ContactIDs == nil {
			return nil
		}
		return tx.Notes().SetMentions(ctx, pc.Shop.ID, n.ID, req.ContactIDs)
	})
	if err != nil {
		return handler.Fail(err)
	}

	var meta noteSaveMeta
	if req.SaveType != "" {
		res, err := a.versions.Save(ctx, pc, n.ID, versions.Input{
			Title:        n.Title,
			Content:      n.Content,
			VersionTitle: strings.TrimSpace(req.Label),
			Snapshot:     req.Snapshot,
			SaveType:     req.SaveType,
		})
		if err != nil {
			return handler.Fail(err)
		}
		vm, err := versions.NewLedger(a.store.Versions()).BuildMeta(ctx, n.ID, pc, res.InlineAlert)
		if err != nil {
			return handler.Fail(err)
		}
		sv := toSaveView(res)
		meta = noteSaveMeta{Save: &sv, Versions: &vm}
	}
	return handler.JSON(toNoteView(n), handler.WithJSONMeta(meta))
}

func (a *API) deleteNote(ctx handler.Context, req noteIDRequest) handler.Response {
	pc := plancontext.MustFromContext(ctx)
	if err := a.store.Notes().Delete(ctx, pc.Shop.ID, req.ID); err != nil {
		return handler.Fail(err)
	}
	return handler.Empty()
}
