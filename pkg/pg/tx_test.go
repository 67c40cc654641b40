package pg_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shopnotes/pkg/pg"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE shops").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := pg.WithTx(context.Background(), db, nil, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "UPDATE shops SET plan = 'FREE'")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := pg.WithTx(context.Background(), db, nil, func(context.Context, *sql.Tx) error {
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = pg.WithTx(context.Background(), db, nil, func(context.Context, *sql.Tx) error {
				panic("kaboom")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("conn refused"))

		err := pg.WithTx(context.Background(), db, nil, func(context.Context, *sql.Tx) error {
			t.Fatal("fn must not run")
			return nil
		})
		require.ErrorIs(t, err, pg.ErrTxFailed)
	})

	t.Run("commit failure", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization"))

		err := pg.WithTx(context.Background(), db, nil, func(context.Context, *sql.Tx) error { return nil })
		require.ErrorIs(t, err, pg.ErrTxFailed)
	})
}
