//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmitrymomot/shopnotes/migrations"
	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/pkg/pg"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/store/postgres"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "shopnotes",
				"POSTGRES_PASSWORD": "shopnotes",
				"POSTGRES_DB":       "shopnotes",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		fmt.Printf("start postgres container: %v\n", err)
		os.Exit(1)
	}

	code := func() int {
		defer func() { _ = container.Terminate(ctx) }()

		host, err := container.Host(ctx)
		if err != nil {
			fmt.Printf("container host: %v\n", err)
			return 1
		}
		port, err := container.MappedPort(ctx, "5432")
		if err != nil {
			fmt.Printf("container port: %v\n", err)
			return 1
		}

		cfg := pg.Config{
			ConnectionString: fmt.Sprintf("postgres://shopnotes:shopnotes@%s:%s/shopnotes?sslmode=disable", host, port.Port()),
			MaxOpenConns:     5,
			MaxIdleConns:     1,
			RetryAttempts:    5,
			RetryInterval:    time.Second,
			MigrationsTable:  "schema_migrations",
		}
		pool, err = pg.Connect(ctx, cfg)
		if err != nil {
			fmt.Printf("connect: %v\n", err)
			return 1
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, cfg, migrations.FS, logger.Discard()); err != nil {
			fmt.Printf("migrate: %v\n", err)
			return 1
		}
		return m.Run()
	}()

	os.Exit(code)
}

func newIntegrationStore(t *testing.T) *postgres.Store {
	t.Helper()
	db := pg.OpenDB(pool)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.New(db)
}

func seedNote(t *testing.T, s *postgres.Store) (*store.Shop, *store.Note) {
	t.Helper()
	ctx := context.Background()

	sh, err := s.Shops().UpsertByDomain(ctx, uuid.NewString()+".myshopify.com")
	require.NoError(t, err)
	n := &store.Note{ShopID: sh.ID, Title: "Returns policy", Tags: []string{"policy", "ops"}}
	require.NoError(t, s.Notes().Create(ctx, n))
	return sh, n
}

func TestIntegrationShopUpsertIsIdempotent(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	domain := uuid.NewString() + ".myshopify.com"

	first, err := s.Shops().UpsertByDomain(ctx, domain)
	require.NoError(t, err)
	second, err := s.Shops().UpsertByDomain(ctx, domain)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "FREE", second.Plan)
	assert.Equal(t, "NONE", second.PlanStatus)
}

func TestIntegrationNoteTagsRoundTrip(t *testing.T) {
	s := newIntegrationStore(t)
	sh, n := seedNote(t, s)

	got, err := s.Notes().Get(context.Background(), sh.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"policy", "ops"}, got.Tags)
	assert.Nil(t, got.FolderID)
}

func TestIntegrationVersionRotation(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	_, n := seedNote(t, s)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	for i := range 3 {
		require.NoError(t, s.Versions().Insert(ctx, &store.NoteVersion{
			NoteID:      n.ID,
			Title:       fmt.Sprintf("v%d", i),
			SaveType:    store.SaveTypeAuto,
			FreeVisible: true,
			Snapshot:    json.RawMessage(`{"n":1}`),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	var hidden *store.NoteVersion
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		hidden, err = tx.Versions().RotateAutoAndInsertVisible(ctx, n.ID, &store.NoteVersion{Title: "v3"})
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, hidden)
	assert.Equal(t, "v0", hidden.Title)
	assert.JSONEq(t, `{"n":1}`, string(hidden.Snapshot))

	visible, manual, err := s.Versions().CountVisible(ctx, n.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, visible)
	assert.Zero(t, manual)

	list, err := s.Versions().List(ctx, n.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "v3", list[0].Title)

	surfaced, err := s.Versions().SurfaceNewestHiddenAuto(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, surfaced)
	assert.Equal(t, hidden.ID, surfaced.ID)
}

func TestIntegrationSetMentions(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	sh, n := seedNote(t, s)

	c := &store.Contact{ShopID: sh.ID, Kind: store.ContactPerson, FirstName: "Ada"}
	require.NoError(t, s.Contacts().Create(ctx, c))

	require.NoError(t, s.Notes().SetMentions(ctx, sh.ID, n.ID, []uuid.UUID{c.ID, c.ID}))
	count, err := s.Count(ctx, sh.ID, store.ResourceMentions)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	err = s.Notes().SetMentions(ctx, sh.ID, n.ID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Contacts().Delete(ctx, sh.ID, c.ID))
	count, err = s.Count(ctx, sh.ID, store.ResourceMentions)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIntegrationFolderDeleteDetachesNotes(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	sh, n := seedNote(t, s)

	f := &store.Folder{ShopID: sh.ID, Name: "Ops"}
	require.NoError(t, s.Folders().Create(ctx, f))
	n.FolderID = &f.ID
	require.NoError(t, s.Notes().Update(ctx, n))

	inFolder, err := s.Notes().List(ctx, sh.ID, store.NoteFilter{FolderID: &f.ID})
	require.NoError(t, err)
	assert.Len(t, inFolder, 1)

	require.NoError(t, s.Folders().Delete(ctx, sh.ID, f.ID))
	got, err := s.Notes().Get(ctx, sh.ID, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)
}
