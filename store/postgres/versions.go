package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/pkg/pg"
	"github.com/dmitrymomot/shopnotes/store"
)

type versions struct{ s *Store }

const versionColumns = `id, note_id, title, content, version_title, snapshot, save_type, free_visible, created_at`

func scanVersion(row scanner) (*store.NoteVersion, error) {
	var (
		v        store.NoteVersion
		snapshot []byte
	)
	err := row.Scan(&v.ID, &v.NoteID, &v.Title, &v.Content, &v.VersionTitle, &snapshot, &v.SaveType, &v.FreeVisible, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(snapshot) > 0 {
		v.Snapshot = json.RawMessage(snapshot)
	}
	return &v, nil
}

// snapshotArg sends an empty snapshot as NULL.
func snapshotArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (r versions) Insert(ctx context.Context, v *store.NoteVersion) error {
	if !v.SaveType.Valid() {
		return store.ErrInvalidArgument
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = r.s.stamp(v.CreatedAt)
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO note_versions (`+versionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.NoteID, v.Title, v.Content, v.VersionTitle, snapshotArg(v.Snapshot), v.SaveType, v.FreeVisible, v.CreatedAt,
	)
	return mapErr("insert version", err)
}

func (r versions) Get(ctx context.Context, noteID, id uuid.UUID) (*store.NoteVersion, error) {
	v, err := scanVersion(r.s.q.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM note_versions WHERE note_id = $1 AND id = $2`, noteID, id))
	if err != nil {
		return nil, mapErr("get version", err)
	}
	return v, nil
}

func (r versions) Delete(ctx context.Context, noteID, id uuid.UUID) error {
	res, err := r.s.q.ExecContext(ctx, `DELETE FROM note_versions WHERE note_id = $1 AND id = $2`, noteID, id)
	return expectOne("delete version", res, err)
}

func (r versions) SetTitle(ctx context.Context, noteID, id uuid.UUID, title string) error {
	res, err := r.s.q.ExecContext(ctx,
		`UPDATE note_versions SET version_title = $3 WHERE note_id = $1 AND id = $2`, noteID, id, title)
	return expectOne("rename version", res, err)
}

func (r versions) CountVisible(ctx context.Context, noteID uuid.UUID) (visible, manual int64, err error) {
	err = r.s.q.QueryRowContext(ctx, `
		SELECT count(*) FILTER (WHERE free_visible),
		       count(*) FILTER (WHERE free_visible AND save_type = 'MANUAL')
		FROM note_versions WHERE note_id = $1`, noteID,
	).Scan(&visible, &manual)
	if err != nil {
		return 0, 0, mapErr("count visible versions", err)
	}
	return visible, manual, nil
}

const hideOldestAutoQuery = `
	UPDATE note_versions SET free_visible = FALSE
	WHERE id = (
		SELECT id FROM note_versions
		WHERE note_id = $1 AND free_visible AND save_type = 'AUTO'
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING ` + versionColumns

const surfaceNewestAutoQuery = `
	UPDATE note_versions SET free_visible = TRUE
	WHERE id = (
		SELECT id FROM note_versions
		WHERE note_id = $1 AND NOT free_visible AND save_type = 'AUTO'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING ` + versionColumns

// rotateQuery hides the oldest visible AUTO row and inserts the new row in
// one statement. It returns the hidden row, or nothing when there was no
// row to hide, in which case nothing is inserted either.
const rotateQuery = `
	WITH victim AS (
		SELECT id FROM note_versions
		WHERE note_id = $1 AND free_visible AND save_type = 'AUTO'
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	), hidden AS (
		UPDATE note_versions v SET free_visible = FALSE
		FROM victim WHERE v.id = victim.id
		RETURNING v.id, v.note_id, v.title, v.content, v.version_title, v.snapshot, v.save_type, v.free_visible, v.created_at
	), inserted AS (
		INSERT INTO note_versions (` + versionColumns + `)
		SELECT $2::uuid, hidden.note_id, $3::text, $4::text, $5::text, $6::jsonb, 'AUTO', TRUE, $7::timestamptz
		FROM hidden
		RETURNING id
	)
	SELECT hidden.id, hidden.note_id, hidden.title, hidden.content, hidden.version_title,
	       hidden.snapshot, hidden.save_type, hidden.free_visible, hidden.created_at
	FROM hidden, inserted`

func (r versions) HideOldestVisibleAuto(ctx context.Context, noteID uuid.UUID) (*store.NoteVersion, error) {
	return r.flip(ctx, "hide version", hideOldestAutoQuery, noteID)
}

func (r versions) SurfaceNewestHiddenAuto(ctx context.Context, noteID uuid.UUID) (*store.NoteVersion, error) {
	return r.flip(ctx, "surface version", surfaceNewestAutoQuery, noteID)
}

func (r versions) flip(ctx context.Context, op, query string, noteID uuid.UUID) (*store.NoteVersion, error) {
	v, err := scanVersion(r.s.q.QueryRowContext(ctx, query, noteID))
	switch {
	case pg.IsNotFoundError(err):
		return nil, nil
	case err != nil:
		return nil, mapErr(op, err)
	}
	return v, nil
}

func (r versions) RotateAutoAndInsertVisible(ctx context.Context, noteID uuid.UUID, v *store.NoteVersion) (*store.NoteVersion, error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.NoteID = noteID
	v.SaveType = store.SaveTypeAuto
	v.FreeVisible = true
	v.CreatedAt = r.s.stamp(v.CreatedAt)

	// Inside a transaction a failed statement poisons the transaction, so
	// the fallback needs a savepoint to return to.
	if err := r.savepoint(ctx, `SAVEPOINT rotate_version`); err != nil {
		return nil, err
	}

	hidden, err := scanVersion(r.s.q.QueryRowContext(ctx, rotateQuery,
		noteID, v.ID, v.Title, v.Content, v.VersionTitle, snapshotArg(v.Snapshot), v.CreatedAt,
	))
	if err == nil || pg.IsNotFoundError(err) {
		if relErr := r.savepoint(ctx, `RELEASE SAVEPOINT rotate_version`); relErr != nil {
			return nil, relErr
		}
		return hidden, nil
	}

	r.s.log.WarnContext(ctx, "atomic version rotation failed, falling back to hide then insert",
		logger.NoteID(noteID), logger.Error(err))
	if rbErr := r.savepoint(ctx, `ROLLBACK TO SAVEPOINT rotate_version`); rbErr != nil {
		return nil, rbErr
	}
	return r.rotateTwoStep(ctx, noteID, v)
}

// savepoint runs a savepoint statement. Outside a transaction it does nothing.
func (r versions) savepoint(ctx context.Context, stmt string) error {
	if !r.s.tx {
		return nil
	}
	if _, err := r.s.q.ExecContext(ctx, stmt); err != nil {
		return mapErr("rotate version", err)
	}
	return nil
}

func (r versions) rotateTwoStep(ctx context.Context, noteID uuid.UUID, v *store.NoteVersion) (*store.NoteVersion, error) {
	hidden, err := r.HideOldestVisibleAuto(ctx, noteID)
	if err != nil || hidden == nil {
		return nil, err
	}
	if err := r.Insert(ctx, v); err != nil {
		return nil, err
	}
	return hidden, nil
}

func (r versions) List(ctx context.Context, noteID uuid.UUID, visibleOnly bool) ([]store.NoteVersion, error) {
	rows, err := r.s.q.QueryContext(ctx, `
		SELECT `+versionColumns+` FROM note_versions
		WHERE note_id = $1 AND (free_visible OR NOT $2)
		ORDER BY created_at DESC, id DESC`,
		noteID, visibleOnly,
	)
	if err != nil {
		return nil, mapErr("list versions", err)
	}
	defer rows.Close()

	var out []store.NoteVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, mapErr("scan version", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list versions", err)
	}
	return out, nil
}
