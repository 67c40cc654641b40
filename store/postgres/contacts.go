package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
)

type contacts struct{ s *Store }

const contactColumns = `id, shop_id, folder_id, kind, first_name, last_name, company, email, phone, pinned_at, created_at, updated_at`

func scanContact(row scanner) (*store.Contact, error) {
	var c store.Contact
	err := row.Scan(
		&c.ID, &c.ShopID, &c.FolderID, &c.Kind, &c.FirstName, &c.LastName,
		&c.Company, &c.Email, &c.Phone, &c.PinnedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r contacts) Create(ctx context.Context, c *store.Contact) error {
	if c.ShopID == uuid.Nil {
		return store.ErrInvalidArgument
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := folderInShop(ctx, r.s.q, "contact_folders", c.ShopID, c.FolderID); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = r.s.stamp(c.CreatedAt)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.ShopID, c.FolderID, c.Kind, c.FirstName, c.LastName,
		c.Company, c.Email, c.Phone, c.PinnedAt, c.CreatedAt, c.UpdatedAt,
	)
	return mapErr("create contact", err)
}

func (r contacts) Get(ctx context.Context, shopID, id uuid.UUID) (*store.Contact, error) {
	c, err := scanContact(r.s.q.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE shop_id = $1 AND id = $2`, shopID, id))
	if err != nil {
		return nil, mapErr("get contact", err)
	}
	return c, nil
}

func (r contacts) List(ctx context.Context, shopID uuid.UUID) ([]store.Contact, error) {
	rows, err := r.s.q.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE shop_id = $1
		ORDER BY last_name, first_name, company`, shopID)
	if err != nil {
		return nil, mapErr("list contacts", err)
	}
	defer rows.Close()

	var out []store.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, mapErr("scan contact", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list contacts", err)
	}
	return out, nil
}

// Delete drops the contact's mentions through the foreign key cascade.
func (r contacts) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	res, err := r.s.q.ExecContext(ctx, `DELETE FROM contacts WHERE shop_id = $1 AND id = $2`, shopID, id)
	return expectOne("delete contact", res, err)
}
