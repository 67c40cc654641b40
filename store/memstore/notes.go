package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
)

type notes struct{ s *Store }

func (r notes) Create(_ context.Context, n *store.Note) error {
	if n.ShopID == uuid.Nil {
		return store.ErrInvalidArgument
	}
	return r.s.with(func(st *state) error {
		if err := folderInShop(st.folders, n.ShopID, n.FolderID); err != nil {
			return err
		}
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		n.CreatedAt = r.s.stamp(n.CreatedAt)
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = n.CreatedAt
		}
		st.notes[n.ID] = n.Clone()
		return nil
	})
}

func (r notes) Get(_ context.Context, shopID, id uuid.UUID) (*store.Note, error) {
	var out *store.Note
	err := r.s.with(func(st *state) error {
		n, ok := st.notes[id]
		if !ok || n.ShopID != shopID {
			return store.ErrNotFound
		}
		cp := n.Clone()
		out = &cp
		return nil
	})
	return out, err
}

func (r notes) List(_ context.Context, shopID uuid.UUID, f store.NoteFilter) ([]store.Note, error) {
	var out []store.Note
	err := r.s.with(func(st *state) error {
		for _, n := range st.notes {
			if n.ShopID != shopID {
				continue
			}
			if f.FolderID != nil && (n.FolderID == nil || *n.FolderID != *f.FolderID) {
				continue
			}
			out = append(out, n.Clone())
		}
		return nil
	})
	slices.SortFunc(out, func(a, b store.Note) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, err
}

func (r notes) Update(_ context.Context, n *store.Note) error {
	return r.s.with(func(st *state) error {
		cur, ok := st.notes[n.ID]
		if !ok || cur.ShopID != n.ShopID {
			return store.ErrNotFound
		}
		if err := folderInShop(st.folders, n.ShopID, n.FolderID); err != nil {
			return err
		}
		next := n.Clone()
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.s.stamp(n.UpdatedAt)
		st.notes[n.ID] = next
		return nil
	})
}

// Delete cascades to versions and mentions.
func (r notes) Delete(_ context.Context, shopID, id uuid.UUID) error {
	return r.s.with(func(st *state) error {
		n, ok := st.notes[id]
		if !ok || n.ShopID != shopID {
			return store.ErrNotFound
		}
		delete(st.notes, id)
		delete(st.mentions, id)
		for vid, v := range st.versions {
			if v.NoteID == id {
				delete(st.versions, vid)
			}
		}
		return nil
	})
}

func (r notes) SetMentions(_ context.Context, shopID, noteID uuid.UUID, contactIDs []uuid.UUID) error {
	return r.s.with(func(st *state) error {
		n, ok := st.notes[noteID]
		if !ok || n.ShopID != shopID {
			return store.ErrNotFound
		}
		set := make(map[uuid.UUID]struct{}, len(contactIDs))
		for _, id := range contactIDs {
			c, ok := st.contacts[id]
			if !ok || c.ShopID != shopID {
				return store.ErrNotFound
			}
			set[id] = struct{}{}
		}
		st.mentions[noteID] = set
		return nil
	})
}
