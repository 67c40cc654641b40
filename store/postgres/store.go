package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/pkg/pg"
	"github.com/dmitrymomot/shopnotes/store"
)

type Store struct {
	db  *sql.DB
	q   pg.DBTX
	tx  bool
	log *slog.Logger
	now func() time.Time
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, q: db, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("store.postgres"))
	return s
}

// RunInTx runs fn in a read-committed transaction. Nested calls join the
// outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.tx {
		return fn(ctx, s)
	}
	return pg.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &Store{db: s.db, q: tx, tx: true, log: s.log, now: s.now})
	})
}

func (s *Store) Shops() store.ShopStore { return shops{s} }
func (s *Store) Notes() store.NoteStore { return notes{s} }
func (s *Store) Versions() store.VersionStore { return versions{s} }
func (s *Store) Folders() store.FolderStore { return folders{s: s, table: "folders", children: "notes"} }
func (s *Store) ContactFolders() store.FolderStore { return folders{s: s, table: "contact_folders", children: "contacts"} }
func (s *Store) Contacts() store.ContactStore { return contacts{s} }

var countQueries = map[string]string{
	store.ResourceNotes:    `SELECT count(*) FROM notes WHERE shop_id = $1`,
	store.ResourceFolders:  `SELECT count(*) FROM folders WHERE shop_id = $1`,
	store.ResourceContacts: `SELECT count(*) FROM contacts WHERE shop_id = $1`,
	store.ResourceMentions: `SELECT count(*) FROM note_mentions WHERE shop_id = $1`,
	store.ResourceVersions: `SELECT count(*) FROM note_versions v JOIN notes n ON n.id = v.note_id WHERE n.shop_id = $1`,
}

// Count implements store.Counter.
func (s *Store) Count(ctx context.Context, shopID uuid.UUID, resource string) (int64, error) {
	q, ok := countQueries[resource]
	if !ok {
		return 0, store.ErrInvalidArgument
	}
	var n int64
	if err := s.q.QueryRowContext(ctx, q, shopID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", resource, err)
	}
	return n, nil
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

// mapErr translates driver errors into store errors.
func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case pg.IsNotFoundError(err), pg.IsForeignKeyViolationError(err):
		return store.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// expectOne turns a zero-row update or delete into store.ErrNotFound.
func expectOne(op string, res sql.Result, err error) error {
	if err != nil {
		return mapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}
