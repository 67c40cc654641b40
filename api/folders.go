package api

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/shopnotes/handler"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
)

type createFolderRequest struct {
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Icon      string `json:"icon"`
	IconColor string `json:"iconColor"`
}

// folderStore picks the note or the contact folder table. Contact folders
// are part of the contacts feature; note folders count against the folder
// quota.
func (a *API) folderStore(ctx handler.Context, contacts bool) (store.FolderStore, plancontext.Context, error) {
	pc := plancontext.MustFromContext(ctx)
	if contacts {
		if err := a.guard.EnsureFeatureEnabled(plan.FeatureContacts, pc.Plan); err != nil {
			return nil, pc, err
		}
		return a.store.ContactFolders(), pc, nil
	}
	return a.store.Folders(), pc, nil
}

func (a *API) listFolders(contacts bool) handler.HandlerFunc[emptyRequest] {
	return func(ctx handler.Context, _ emptyRequest) handler.Response {
		fs, pc, err := a.folderStore(ctx, contacts)
		if err != nil {
			return handler.Fail(err)
		}
		list, err := fs.List(ctx, pc.Shop.ID)
		if err != nil {
			return handler.Fail(err)
		}
		return handler.JSON(mapSlice(list, toFolderView))
	}
}

func (a *API) createFolder(contacts bool) handler.HandlerFunc[createFolderRequest] {
	return func(ctx handler.Context, req createFolderRequest) handler.Response {
		fs, pc, err := a.folderStore(ctx, contacts)
		if err != nil {
			return handler.Fail(err)
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return handler.Fail(handler.FieldErrors{"name": "is required"})
		}
		if !contacts {
			if err := a.guard.EnsureCanCreate(ctx, plan.ResourceFolders, pc.Shop.ID, pc.Plan); err != nil {
				return handler.Fail(err)
			}
		}

		f := &store.Folder{
			ShopID:    pc.Shop.ID,
			Name:      name,
			Position:  req.Position,
			Icon:      req.Icon,
			IconColor: req.IconColor,
			CreatedAt: a.now().UTC(),
		}
		if err := fs.Create(ctx, f); err != nil {
			return handler.Fail(err)
		}
		return handler.JSON(toFolderView(f), handler.WithJSONStatus(http.StatusCreated))
	}
}

func (a *API) deleteFolder(contacts bool) handler.HandlerFunc[noteIDRequest] {
	return func(ctx handler.Context, req noteIDRequest) handler.Response {
		fs, pc, err := a.folderStore(ctx, contacts)
		if err != nil {
			return handler.Fail(err)
		}
		if err := fs.Delete(ctx, pc.Shop.ID, req.ID); err != nil {
			return handler.Fail(err)
		}
		return handler.Empty()
	}
}
