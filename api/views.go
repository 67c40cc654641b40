package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/versions"
)

type noteView struct {
	ID        uuid.UUID  `json:"id"`
	FolderID  *uuid.UUID `json:"folderId"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	PinnedAt  *time.Time `json:"pinnedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func toNoteView(n *store.Note) noteView {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return noteView{
		ID:        n.ID,
		FolderID:  n.FolderID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      tags,
		PinnedAt:  n.PinnedAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

type versionView struct {
	ID           uuid.UUID       `json:"id"`
	NoteID       uuid.UUID       `json:"noteId"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	VersionTitle string          `json:"versionTitle"`
	Snapshot     json.RawMessage `json:"snapshot,omitempty"`
	SaveType     store.SaveType  `json:"saveType"`
	FreeVisible  bool            `json:"freeVisible"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func toVersionView(v *store.NoteVersion) *versionView {
	if v == nil {
		return nil
	}
	return &versionView{
		ID:           v.ID,
		NoteID:       v.NoteID,
		Title:        v.Title,
		Content:      v.Content,
		VersionTitle: v.VersionTitle,
		Snapshot:     v.Snapshot,
		SaveType:     v.SaveType,
		FreeVisible:  v.FreeVisible,
		CreatedAt:    v.CreatedAt,
	}
}

func toVersionViews(vs []store.NoteVersion) []versionView {
	out := make([]versionView, 0, len(vs))
	for i := range vs {
		out = append(out, *toVersionView(&vs[i]))
	}
	return out
}

type saveView struct {
	Version     *versionView         `json:"version"`
	Evicted     *versionView         `json:"evicted,omitempty"`
	InlineAlert versions.InlineAlert `json:"inlineAlert,omitempty"`
}

func toSaveView(r versions.SaveResult) saveView {
	return saveView{
		Version:     toVersionView(r.Version),
		Evicted:     toVersionView(r.Evicted),
		InlineAlert: r.InlineAlert,
	}
}

type folderView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	Icon      string    `json:"icon"`
	IconColor string    `json:"iconColor"`
	CreatedAt time.Time `json:"createdAt"`
}

func toFolderView(f *store.Folder) folderView {
	return folderView{
		ID:        f.ID,
		Name:      f.Name,
		Position:  f.Position,
		Icon:      f.Icon,
		IconColor: f.IconColor,
		CreatedAt: f.CreatedAt,
	}
}

type contactView struct {
	ID        uuid.UUID         `json:"id"`
	FolderID  *uuid.UUID        `json:"folderId"`
	Kind      store.ContactKind `json:"kind"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Company   string            `json:"company"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	PinnedAt  *time.Time        `json:"pinnedAt"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func toContactView(c *store.Contact) contactView {
	return contactView{
		ID:        c.ID,
		FolderID:  c.FolderID,
		Kind:      c.Kind,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Company:   c.Company,
		Email:     c.Email,
		Phone:     c.Phone,
		PinnedAt:  c.PinnedAt,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// mapSlice converts a slice of store rows into views.
func mapSlice[T, V any](in []T, fn func(*T) V) []V {
	out := make([]V, 0, len(in))
	for i := range in {
		out = append(out, fn(&in[i]))
	}
	return out
}
