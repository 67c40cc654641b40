// Package memstore is an in-memory store.Store. Transactions run on a copy
// of the whole dataset that replaces the live copy on commit, so a failed
// transaction leaves no trace. It backs the service tests and local runs
// without PostgreSQL.
package memstore

import (
	"bytes"
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
)

type state struct {
	shops          map[uuid.UUID]store.Shop
	notes          map[uuid.UUID]store.Note
	versions       map[uuid.UUID]store.NoteVersion
	folders        map[uuid.UUID]store.Folder
	contactFolders map[uuid.UUID]store.Folder
	contacts       map[uuid.UUID]store.Contact
	mentions       map[uuid.UUID]map[uuid.UUID]struct{} // note -> contacts
}

func newState() *state {
	return &state{
		shops:          make(map[uuid.UUID]store.Shop),
		notes:          make(map[uuid.UUID]store.Note),
		versions:       make(map[uuid.UUID]store.NoteVersion),
		folders:        make(map[uuid.UUID]store.Folder),
		contactFolders: make(map[uuid.UUID]store.Folder),
		contacts:       make(map[uuid.UUID]store.Contact),
		mentions:       make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Values are copied on every read and write, so shallow map clones suffice
// apart from the nested mentions sets.
func (s *state) clone() *state {
	cp := &state{
		shops:          maps.Clone(s.shops),
		notes:          maps.Clone(s.notes),
		versions:       maps.Clone(s.versions),
		folders:        maps.Clone(s.folders),
		contactFolders: maps.Clone(s.contactFolders),
		contacts:       maps.Clone(s.contacts),
		mentions:       make(map[uuid.UUID]map[uuid.UUID]struct{}, len(s.mentions)),
	}
	for k, v := range s.mentions {
		cp.mentions[k] = maps.Clone(v)
	}
	return cp
}

type root struct {
	mu   sync.Mutex
	data *state
}

// Store implements store.Store.
type Store struct {
	root *root
	tx   *state // non-nil inside RunInTx
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{root: &root{data: newState()}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// with runs fn on the current dataset, locking unless inside a transaction
// that already holds the lock.
func (s *Store) with(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return fn(s.root.data)
}

// RunInTx serializes transactions behind the store lock.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	work := s.root.data.clone()
	txStore := &Store{root: s.root, tx: work, now: s.now}
	if err := fn(ctx, txStore); err != nil {
		return err
	}
	s.root.data = work
	return nil
}

func (s *Store) Shops() store.ShopStore { return shops{s} }
func (s *Store) Notes() store.NoteStore { return notes{s} }
func (s *Store) Versions() store.VersionStore { return versions{s} }
func (s *Store) Folders() store.FolderStore { return folders{s: s, contacts: false} }
func (s *Store) ContactFolders() store.FolderStore { return folders{s: s, contacts: true} }
func (s *Store) Contacts() store.ContactStore { return contacts{s} }

// Count implements store.Counter.
func (s *Store) Count(_ context.Context, shopID uuid.UUID, resource string) (int64, error) {
	var n int64
	err := s.with(func(st *state) error {
		switch resource {
		case store.ResourceNotes:
			for _, v := range st.notes {
				if v.ShopID == shopID {
					n++
				}
			}
		case store.ResourceFolders:
			for _, v := range st.folders {
				if v.ShopID == shopID {
					n++
				}
			}
		case store.ResourceContacts:
			for _, v := range st.contacts {
				if v.ShopID == shopID {
					n++
				}
			}
		case store.ResourceMentions:
			for noteID, set := range st.mentions {
				if note, ok := st.notes[noteID]; ok && note.ShopID == shopID {
					n += int64(len(set))
				}
			}
		case store.ResourceVersions:
			for _, v := range st.versions {
				if note, ok := st.notes[v.NoteID]; ok && note.ShopID == shopID {
					n++
				}
			}
		default:
			return store.ErrInvalidArgument
		}
		return nil
	})
	return n, err
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

// versionLess orders versions by (created_at, id).
func versionLess(a, b store.NoteVersion) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
