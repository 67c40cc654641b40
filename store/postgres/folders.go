package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/pkg/pg"
	"github.com/dmitrymomot/shopnotes/store"
)

// folders serves both folder tables. children names the table whose
// folder_id points at this one.
type folders struct {
	s        *Store
	table    string
	children string
}

func (r folders) Create(ctx context.Context, f *store.Folder) error {
	if f.ShopID == uuid.Nil || f.Name == "" {
		return store.ErrInvalidArgument
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.CreatedAt = r.s.stamp(f.CreatedAt)
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO `+r.table+` (id, shop_id, name, position, icon, icon_color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.ShopID, f.Name, f.Position, f.Icon, f.IconColor, f.CreatedAt,
	)
	return mapErr("create folder", err)
}

func (r folders) List(ctx context.Context, shopID uuid.UUID) ([]store.Folder, error) {
	rows, err := r.s.q.QueryContext(ctx, `
		SELECT id, shop_id, name, position, icon, icon_color, created_at
		FROM `+r.table+`
		WHERE shop_id = $1
		ORDER BY position ASC, created_at ASC`, shopID)
	if err != nil {
		return nil, mapErr("list folders", err)
	}
	defer rows.Close()

	var out []store.Folder
	for rows.Next() {
		var f store.Folder
		if err := rows.Scan(&f.ID, &f.ShopID, &f.Name, &f.Position, &f.Icon, &f.IconColor, &f.CreatedAt); err != nil {
			return nil, mapErr("scan folder", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list folders", err)
	}
	return out, nil
}

// Delete detaches the folder's children before removing it.
func (r folders) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	return r.s.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		q := tx.(*Store).q
		if _, err := q.ExecContext(ctx,
			`UPDATE `+r.children+` SET folder_id = NULL WHERE shop_id = $1 AND folder_id = $2`, shopID, id,
		); err != nil {
			return mapErr("detach folder children", err)
		}
		res, err := q.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE shop_id = $1 AND id = $2`, shopID, id)
		return expectOne("delete folder", res, err)
	})
}

// folderInShop returns store.ErrNotFound unless id is nil or names a folder
// of shopID in table.
func folderInShop(ctx context.Context, q pg.DBTX, table string, shopID uuid.UUID, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var exists bool
	if err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE shop_id = $1 AND id = $2)`, shopID, *id,
	).Scan(&exists); err != nil {
		return mapErr("check folder", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return nil
}
