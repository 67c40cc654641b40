package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrymomot/shopnotes/store"
)

type notes struct{ s *Store }

const noteColumns = `id, shop_id, folder_id, title, content, tags, pinned_at, created_at, updated_at`

var typeMap = pgtype.NewMap()

func scanNote(row scanner) (*store.Note, error) {
	var n store.Note
	err := row.Scan(
		&n.ID, &n.ShopID, &n.FolderID, &n.Title, &n.Content,
		typeMap.SQLScanner(&n.Tags), &n.PinnedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func tagsArg(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (r notes) Create(ctx context.Context, n *store.Note) error {
	if n.ShopID == uuid.Nil {
		return store.ErrInvalidArgument
	}
	if err := folderInShop(ctx, r.s.q, "folders", n.ShopID, n.FolderID); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = r.s.stamp(n.CreatedAt)
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.ShopID, n.FolderID, n.Title, n.Content, tagsArg(n.Tags), n.PinnedAt, n.CreatedAt, n.UpdatedAt,
	)
	return mapErr("create note", err)
}

func (r notes) Get(ctx context.Context, shopID, id uuid.UUID) (*store.Note, error) {
	n, err := scanNote(r.s.q.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE shop_id = $1 AND id = $2`, shopID, id))
	if err != nil {
		return nil, mapErr("get note", err)
	}
	return n, nil
}

func (r notes) List(ctx context.Context, shopID uuid.UUID, f store.NoteFilter) ([]store.Note, error) {
	rows, err := r.s.q.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE shop_id = $1 AND ($2::uuid IS NULL OR folder_id = $2)
		ORDER BY updated_at DESC, id DESC`,
		shopID, f.FolderID,
	)
	if err != nil {
		return nil, mapErr("list notes", err)
	}
	defer rows.Close()

	var out []store.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, mapErr("scan note", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list notes", err)
	}
	return out, nil
}

func (r notes) Update(ctx context.Context, n *store.Note) error {
	if err := folderInShop(ctx, r.s.q, "folders", n.ShopID, n.FolderID); err != nil {
		return err
	}
	n.UpdatedAt = r.s.stamp(n.UpdatedAt)
	res, err := r.s.q.ExecContext(ctx, `
		UPDATE notes SET folder_id = $3, title = $4, content = $5, tags = $6, pinned_at = $7, updated_at = $8
		WHERE shop_id = $1 AND id = $2`,
		n.ShopID, n.ID, n.FolderID, n.Title, n.Content, tagsArg(n.Tags), n.PinnedAt, n.UpdatedAt,
	)
	return expectOne("update note", res, err)
}

// Delete cascades to versions and mentions through foreign keys.
func (r notes) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	res, err := r.s.q.ExecContext(ctx, `DELETE FROM notes WHERE shop_id = $1 AND id = $2`, shopID, id)
	return expectOne("delete note", res, err)
}

// SetMentions replaces the mention set. Contacts outside the shop make the
// whole call fail with store.ErrNotFound.
func (r notes) SetMentions(ctx context.Context, shopID, noteID uuid.UUID, contactIDs []uuid.UUID) error {
	return r.s.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		q := tx.(*Store).q

		var exists bool
		if err := q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM notes WHERE shop_id = $1 AND id = $2)`, shopID, noteID,
		).Scan(&exists); err != nil {
			return mapErr("check note", err)
		}
		if !exists {
			return store.ErrNotFound
		}

		ids := uniqueIDs(contactIDs)
		if len(ids) > 0 {
			var found int
			if err := q.QueryRowContext(ctx,
				`SELECT count(*) FROM contacts WHERE shop_id = $1 AND id = ANY($2::uuid[])`, shopID, ids,
			).Scan(&found); err != nil {
				return mapErr("check contacts", err)
			}
			if found != len(ids) {
				return store.ErrNotFound
			}
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM note_mentions WHERE note_id = $1`, noteID); err != nil {
			return mapErr("clear mentions", err)
		}
		if len(ids) == 0 {
			return nil
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO note_mentions (note_id, contact_id, shop_id)
			SELECT $1, unnest($2::uuid[]), $3`,
			noteID, ids, shopID,
		)
		return mapErr("insert mentions", err)
	})
}

// uniqueIDs returns the distinct ids as strings, the form pgx encodes into
// a uuid[] parameter.
func uniqueIDs(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id.String())
	}
	return out
}
