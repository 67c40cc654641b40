package versions

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
)

// InlineAlert is a non-fatal notice attached to a save.
type InlineAlert string

const AlertNoRoomDueToManuals InlineAlert = "NO_ROOM_DUE_TO_MANUALS"

// Meta summarizes the version window of a note for clients.
type Meta struct {
	Plan                  plan.Code   `json:"plan"`
	VisibleCount          int64       `json:"visibleCount"`
	HasAllManualVisible   bool        `json:"hasAllManualVisible"`
	VersionLimit          int64       `json:"versionLimit"`
	LastActionInlineAlert InlineAlert `json:"lastActionInlineAlert,omitempty"`
}

// Ledger reads and flips version visibility. Bind it to a transaction's
// VersionStore when several calls must be atomic.
type Ledger struct {
	versions store.VersionStore
}

func NewLedger(vs store.VersionStore) *Ledger {
	return &Ledger{versions: vs}
}

func (l *Ledger) VisibleCount(ctx context.Context, noteID uuid.UUID) (int64, error) {
	visible, _, err := l.versions.CountVisible(ctx, noteID)
	return visible, err
}

// HasAllManualAtLimit reports whether the window is full and every visible
// version is a manual save, leaving no autosave to evict.
func (l *Ledger) HasAllManualAtLimit(ctx context.Context, noteID uuid.UUID, limit int64) (bool, error) {
	visible, manual, err := l.versions.CountVisible(ctx, noteID)
	if err != nil {
		return false, err
	}
	return visible >= limit && visible == manual, nil
}

func (l *Ledger) HideOldestVisibleAuto(ctx context.Context, noteID uuid.UUID) (*store.NoteVersion, error) {
	return l.versions.HideOldestVisibleAuto(ctx, noteID)
}

func (l *Ledger) SurfaceNewestHiddenAuto(ctx context.Context, noteID uuid.UUID) (*store.NoteVersion, error) {
	return l.versions.SurfaceNewestHiddenAuto(ctx, noteID)
}

// RotateAutoAndInsertVisible evicts the oldest visible autosave and inserts
// v as a visible autosave. It returns the evicted row, or nil without
// inserting anything when there was nothing to evict.
func (l *Ledger) RotateAutoAndInsertVisible(ctx context.Context, noteID uuid.UUID, v *store.NoteVersion) (*store.NoteVersion, error) {
	return l.versions.RotateAutoAndInsertVisible(ctx, noteID, v)
}

// ListVisible returns the versions a plan can see, newest first.
func (l *Ledger) ListVisible(ctx context.Context, noteID uuid.UUID, unlimited bool) ([]store.NoteVersion, error) {
	return l.versions.List(ctx, noteID, !unlimited)
}

func (l *Ledger) BuildMeta(ctx context.Context, noteID uuid.UUID, pc plancontext.Context, alert InlineAlert) (Meta, error) {
	visible, manual, err := l.versions.CountVisible(ctx, noteID)
	if err != nil {
		return Meta{}, err
	}
	return Meta{
		Plan:                  pc.Plan,
		VisibleCount:          visible,
		HasAllManualVisible:   visible > 0 && visible == manual,
		VersionLimit:          pc.VersionLimit,
		LastActionInlineAlert: alert,
	}, nil
}
