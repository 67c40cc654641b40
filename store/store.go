package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Counted resources. The string values match plan.Resource.
const (
	ResourceNotes    = "notes"
	ResourceFolders  = "folders"
	ResourceContacts = "contacts"
	ResourceMentions = "mentions"
	ResourceVersions = "versions"
)

// Counter counts a shop's rows of one resource kind.
type Counter interface {
	Count(ctx context.Context, shopID uuid.UUID, resource string) (int64, error)
}

type ShopStore interface {
	// UpsertByDomain returns the shop for domain, creating a FREE/NONE row
	// when none exists.
	UpsertByDomain(ctx context.Context, domain string) (*Shop, error)
	GetByDomain(ctx context.Context, domain string) (*Shop, error)
	// GetForUpdate reads the shop and, inside a transaction, locks its row
	// until commit.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Shop, error)
	// Update persists plan, billing and version-prompt fields of s.
	Update(ctx context.Context, s *Shop) error
	// DowngradeToFree moves s to an unmanaged FREE plan only while the stored
	// plan, status and last billing sync still equal those of s. It reports
	// false, leaving s untouched, when another write got there first.
	DowngradeToFree(ctx context.Context, s *Shop) (bool, error)
	SetVersionLimitPromptedAt(ctx context.Context, shopID uuid.UUID, at time.Time) error
	// RecordSyncFailure stamps billing sync health without touching plan fields.
	RecordSyncFailure(ctx context.Context, shopID uuid.UUID, at time.Time, msg string) error
}

type NoteFilter struct {
	FolderID *uuid.UUID
}

type NoteStore interface {
	Create(ctx context.Context, n *Note) error
	Get(ctx context.Context, shopID, id uuid.UUID) (*Note, error)
	List(ctx context.Context, shopID uuid.UUID, f NoteFilter) ([]Note, error)
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, shopID, id uuid.UUID) error
	// SetMentions replaces the contact mentions recorded for a note.
	SetMentions(ctx context.Context, shopID, noteID uuid.UUID, contactIDs []uuid.UUID) error
}

// VersionStore holds note versions. Ordering is always (created_at, id).
type VersionStore interface {
	Insert(ctx context.Context, v *NoteVersion) error
	Get(ctx context.Context, noteID, id uuid.UUID) (*NoteVersion, error)
	Delete(ctx context.Context, noteID, id uuid.UUID) error
	SetTitle(ctx context.Context, noteID, id uuid.UUID, title string) error
	// CountVisible returns the number of visible rows and how many of them are manual.
	CountVisible(ctx context.Context, noteID uuid.UUID) (visible, visibleManual int64, err error)
	// HideOldestVisibleAuto hides the oldest visible AUTO row and returns it,
	// or nil when there is none.
	HideOldestVisibleAuto(ctx context.Context, noteID uuid.UUID) (*NoteVersion, error)
	// SurfaceNewestHiddenAuto is the inverse of HideOldestVisibleAuto.
	SurfaceNewestHiddenAuto(ctx context.Context, noteID uuid.UUID) (*NoteVersion, error)
	// RotateAutoAndInsertVisible hides the oldest visible AUTO row and inserts
	// v as visible. It returns the hidden row, or nil without inserting when
	// no visible AUTO row exists.
	RotateAutoAndInsertVisible(ctx context.Context, noteID uuid.UUID, v *NoteVersion) (*NoteVersion, error)
	// List returns versions newest first.
	List(ctx context.Context, noteID uuid.UUID, visibleOnly bool) ([]NoteVersion, error)
}

type FolderStore interface {
	Create(ctx context.Context, f *Folder) error
	List(ctx context.Context, shopID uuid.UUID) ([]Folder, error)
	// Delete removes the folder; its children move to no folder.
	Delete(ctx context.Context, shopID, id uuid.UUID) error
}

type ContactStore interface {
	Create(ctx context.Context, c *Contact) error
	Get(ctx context.Context, shopID, id uuid.UUID) (*Contact, error)
	List(ctx context.Context, shopID uuid.UUID) ([]Contact, error)
	Delete(ctx context.Context, shopID, id uuid.UUID) error
}

// Store is the root handle. RunInTx gives fn a Store bound to one
// transaction; nested calls reuse it.
type Store interface {
	Counter

	Shops() ShopStore
	Notes() NoteStore
	Versions() VersionStore
	Folders() FolderStore
	ContactFolders() FolderStore
	Contacts() ContactStore

	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
