package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/handler"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
)

type createContactRequest struct {
	FolderID  *uuid.UUID        `json:"folderId"`
	Kind      store.ContactKind `json:"kind"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Company   string            `json:"company"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Pinned    bool              `json:"pinned"`
}

func (a *API) contactsEnabled(ctx handler.Context) (plancontext.Context, error) {
	pc := plancontext.MustFromContext(ctx)
	return pc, a.guard.EnsureFeatureEnabled(plan.FeatureContacts, pc.Plan)
}

func (a *API) listContacts(ctx handler.Context, _ emptyRequest) handler.Response {
	pc, err := a.contactsEnabled(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	list, err := a.store.Contacts().List(ctx, pc.Shop.ID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(mapSlice(list, toContactView))
}

func (a *API) createContact(ctx handler.Context, req createContactRequest) handler.Response {
	pc, err := a.contactsEnabled(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := a.guard.EnsureCanCreate(ctx, plan.ResourceContacts, pc.Shop.ID, pc.Plan); err != nil {
		return handler.Fail(err)
	}

	now := a.now().UTC()
	c := &store.Contact{
		ShopID:    pc.Shop.ID,
		FolderID:  req.FolderID,
		Kind:      store.ContactKind(strings.ToUpper(string(req.Kind))),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Company:   strings.TrimSpace(req.Company),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Pinned {
		c.PinnedAt = &now
	}
	if err := c.Validate(); err != nil {
		return handler.Fail(contactFieldErrors(c))
	}
	if err := a.store.Contacts().Create(ctx, c); err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(toContactView(c), handler.WithJSONStatus(http.StatusCreated))
}

func contactFieldErrors(c *store.Contact) handler.FieldErrors {
	switch c.Kind {
	case store.ContactPerson:
		return handler.FieldErrors{"firstName": "first or last name is required"}
	case store.ContactBusiness:
		return handler.FieldErrors{"company": "is required"}
	default:
		return handler.FieldErrors{"kind": "must be PERSON or BUSINESS"}
	}
}

func (a *API) deleteContact(ctx handler.Context, req noteIDRequest) handler.Response {
	pc, err := a.contactsEnabled(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := a.store.Contacts().Delete(ctx, pc.Shop.ID, req.ID); err != nil {
		return handler.Fail(err)
	}
	return handler.Empty()
}
