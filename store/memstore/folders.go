package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
)

type folders struct {
	s        *Store
	contacts bool
}

func (r folders) table(st *state) map[uuid.UUID]store.Folder {
	if r.contacts {
		return st.contactFolders
	}
	return st.folders
}

func (r folders) Create(_ context.Context, f *store.Folder) error {
	if f.ShopID == uuid.Nil || f.Name == "" {
		return store.ErrInvalidArgument
	}
	return r.s.with(func(st *state) error {
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		f.CreatedAt = r.s.stamp(f.CreatedAt)
		r.table(st)[f.ID] = *f
		return nil
	})
}

func (r folders) List(_ context.Context, shopID uuid.UUID) ([]store.Folder, error) {
	var out []store.Folder
	err := r.s.with(func(st *state) error {
		for _, f := range r.table(st) {
			if f.ShopID == shopID {
				out = append(out, f)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b store.Folder) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, err
}

func (r folders) Delete(_ context.Context, shopID, id uuid.UUID) error {
	return r.s.with(func(st *state) error {
		tbl := r.table(st)
		f, ok := tbl[id]
		if !ok || f.ShopID != shopID {
			return store.ErrNotFound
		}
		delete(tbl, id)

		if r.contacts {
			for cid, c := range st.contacts {
				if c.FolderID != nil && *c.FolderID == id {
					c.FolderID = nil
					st.contacts[cid] = c
				}
			}
			return nil
		}
		for nid, n := range st.notes {
			if n.FolderID != nil && *n.FolderID == id {
				n.FolderID = nil
				st.notes[nid] = n
			}
		}
		return nil
	})
}

func folderInShop(table map[uuid.UUID]store.Folder, shopID uuid.UUID, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if f, ok := table[*id]; !ok || f.ShopID != shopID {
		return store.ErrNotFound
	}
	return nil
}
