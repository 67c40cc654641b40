package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
)

type contacts struct{ s *Store }

func (r contacts) Create(_ context.Context, c *store.Contact) error {
	if c.ShopID == uuid.Nil {
		return store.ErrInvalidArgument
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return r.s.with(func(st *state) error {
		if err := folderInShop(st.contactFolders, c.ShopID, c.FolderID); err != nil {
			return err
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt = r.s.stamp(c.CreatedAt)
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = c.CreatedAt
		}
		st.contacts[c.ID] = c.Clone()
		return nil
	})
}

func (r contacts) Get(_ context.Context, shopID, id uuid.UUID) (*store.Contact, error) {
	var out *store.Contact
	err := r.s.with(func(st *state) error {
		c, ok := st.contacts[id]
		if !ok || c.ShopID != shopID {
			return store.ErrNotFound
		}
		cp := c.Clone()
		out = &cp
		return nil
	})
	return out, err
}

func (r contacts) List(_ context.Context, shopID uuid.UUID) ([]store.Contact, error) {
	var out []store.Contact
	err := r.s.with(func(st *state) error {
		for _, c := range st.contacts {
			if c.ShopID == shopID {
				out = append(out, c.Clone())
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b store.Contact) int {
		return strings.Compare(a.LastName+a.FirstName+a.Company, b.LastName+b.FirstName+b.Company)
	})
	return out, err
}

func (r contacts) Delete(_ context.Context, shopID, id uuid.UUID) error {
	return r.s.with(func(st *state) error {
		c, ok := st.contacts[id]
		if !ok || c.ShopID != shopID {
			return store.ErrNotFound
		}
		delete(st.contacts, id)
		for _, set := range st.mentions {
			delete(set, id)
		}
		return nil
	})
}
