package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
)

type versions struct{ s *Store }

func (r versions) Insert(_ context.Context, v *store.NoteVersion) error {
	if !v.SaveType.Valid() {
		return store.ErrInvalidArgument
	}
	return r.s.with(func(st *state) error {
		return r.insert(st, v)
	})
}

func (r versions) insert(st *state, v *store.NoteVersion) error {
	if _, ok := st.notes[v.NoteID]; !ok {
		return store.ErrNotFound
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = r.s.stamp(v.CreatedAt)
	st.versions[v.ID] = v.Clone()
	return nil
}

func (r versions) Get(_ context.Context, noteID, id uuid.UUID) (*store.NoteVersion, error) {
	var out *store.NoteVersion
	err := r.s.with(func(st *state) error {
		v, ok := st.versions[id]
		if !ok || v.NoteID != noteID {
			return store.ErrNotFound
		}
		cp := v.Clone()
		out = &cp
		return nil
	})
	return out, err
}

func (r versions) Delete(_ context.Context, noteID, id uuid.UUID) error {
	return r.s.with(func(st *state) error {
		v, ok := st.versions[id]
		if !ok || v.NoteID != noteID {
			return store.ErrNotFound
		}
		delete(st.versions, id)
		return nil
	})
}

func (r versions) SetTitle(_ context.Context, noteID, id uuid.UUID, title string) error {
	return r.s.with(func(st *state) error {
		v, ok := st.versions[id]
		if !ok || v.NoteID != noteID {
			return store.ErrNotFound
		}
		v.VersionTitle = title
		st.versions[id] = v
		return nil
	})
}

func (r versions) CountVisible(_ context.Context, noteID uuid.UUID) (visible, manual int64, err error) {
	err = r.s.with(func(st *state) error {
		for _, v := range st.versions {
			if v.NoteID != noteID || !v.FreeVisible {
				continue
			}
			visible++
			if v.SaveType == store.SaveTypeManual {
				manual++
			}
		}
		return nil
	})
	return visible, manual, err
}

func (r versions) HideOldestVisibleAuto(_ context.Context, noteID uuid.UUID) (*store.NoteVersion, error) {
	var out *store.NoteVersion
	err := r.s.with(func(st *state) error {
		out = flip(st, noteID, true, false)
		return nil
	})
	return out, err
}

func (r versions) SurfaceNewestHiddenAuto(_ context.Context, noteID uuid.UUID) (*store.NoteVersion, error) {
	var out *store.NoteVersion
	err := r.s.with(func(st *state) error {
		out = flip(st, noteID, false, true)
		return nil
	})
	return out, err
}

func (r versions) RotateAutoAndInsertVisible(_ context.Context, noteID uuid.UUID, v *store.NoteVersion) (*store.NoteVersion, error) {
	var out *store.NoteVersion
	err := r.s.with(func(st *state) error {
		out = flip(st, noteID, true, false)
		if out == nil {
			return nil
		}
		v.NoteID = noteID
		v.SaveType = store.SaveTypeAuto
		v.FreeVisible = true
		return r.insert(st, v)
	})
	return out, err
}

func (r versions) List(_ context.Context, noteID uuid.UUID, visibleOnly bool) ([]store.NoteVersion, error) {
	var out []store.NoteVersion
	err := r.s.with(func(st *state) error {
		for _, v := range st.versions {
			if v.NoteID != noteID || (visibleOnly && !v.FreeVisible) {
				continue
			}
			out = append(out, v.Clone())
		}
		return nil
	})
	slices.SortFunc(out, func(a, b store.NoteVersion) int {
		if versionLess(a, b) {
			return 1
		}
		if versionLess(b, a) {
			return -1
		}
		return 0
	})
	return out, err
}

// flip finds the AUTO row with FreeVisible == from, oldest first when hiding
// and newest first when surfacing, and sets it to the opposite state.
func flip(st *state, noteID uuid.UUID, from, oldest bool) *store.NoteVersion {
	var pick *store.NoteVersion
	for _, v := range st.versions {
		if v.NoteID != noteID || v.SaveType != store.SaveTypeAuto || v.FreeVisible != from {
			continue
		}
		if pick == nil || (oldest && versionLess(v, *pick)) || (!oldest && versionLess(*pick, v)) {
			cp := v
			pick = &cp
		}
	}
	if pick == nil {
		return nil
	}
	pick.FreeVisible = !from
	st.versions[pick.ID] = pick.Clone()
	out := pick.Clone()
	return &out
}
