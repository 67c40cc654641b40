package versions_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/store/memstore"
	"github.com/dmitrymomot/shopnotes/svc/plan"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
	"github.com/dmitrymomot/shopnotes/svc/versions"
)

var start = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

// clock advances one second per reading so versions get distinct timestamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	ms    *memstore.Store
	svc   *versions.Service
	clock *clock
	shop  *store.Shop
	note  *store.Note
	free  plancontext.Context
	pro   plancontext.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	c := &clock{t: start}
	ms := memstore.New(memstore.WithClock(c.Now))

	shop, err := ms.Shops().UpsertByDomain(ctx, "acme.myshopify.com")
	require.NoError(t, err)
	note := &store.Note{ShopID: shop.ID, Title: "Supplier list", Content: "<p>v0</p>"}
	require.NoError(t, ms.Notes().Create(ctx, note))

	return &fixture{
		ms:    ms,
		svc:   versions.NewService(ms, versions.WithClock(c.Now)),
		clock: c,
		shop:  shop,
		note:  note,
		free:  plancontext.Context{Shop: shop, Plan: plan.CodeFree, IsActive: true, VersionLimit: plan.DefaultFreeVersions},
		pro:   plancontext.Context{Shop: shop, Plan: plan.CodePro, IsActive: true, VersionLimit: plan.Unlimited},
	}
}

func (f *fixture) save(t *testing.T, pc plancontext.Context, st store.SaveType) versions.SaveResult {
	t.Helper()
	res, err := f.svc.Save(context.Background(), pc, f.note.ID, versions.Input{Title: "t", Content: "c", SaveType: st})
	require.NoError(t, err)
	return res
}

func (f *fixture) seed(t *testing.T, types ...store.SaveType) []*store.NoteVersion {
	t.Helper()
	out := make([]*store.NoteVersion, 0, len(types))
	for _, st := range types {
		res := f.save(t, f.free, st)
		require.NotNil(t, res.Version)
		out = append(out, res.Version)
	}
	return out
}

func (f *fixture) counts(t *testing.T) (visible, manual, total int) {
	t.Helper()
	all, err := f.ms.Versions().List(context.Background(), f.note.ID, false)
	require.NoError(t, err)
	for _, v := range all {
		if v.FreeVisible {
			visible++
			if v.SaveType == store.SaveTypeManual {
				manual++
			}
		}
	}
	return visible, manual, len(all)
}

const (
	manual = store.SaveTypeManual
	auto   = store.SaveTypeAuto
)

func TestSaveBelowLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := f.save(t, f.free, auto)
	require.NotNil(t, res.Version)
	assert.True(t, res.Version.FreeVisible)
	assert.Nil(t, res.Evicted)
	assert.Empty(t, res.InlineAlert)
}

func TestAutosaveEvictsOldestAuto(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seeded := f.seed(t, manual, auto, manual, auto, manual)

	res := f.save(t, f.free, auto)
	require.NotNil(t, res.Version)
	require.NotNil(t, res.Evicted)
	assert.Equal(t, seeded[1].ID, res.Evicted.ID)
	assert.False(t, res.Evicted.FreeVisible)

	visible, manuals, total := f.counts(t)
	assert.Equal(t, 5, visible)
	assert.Equal(t, 3, manuals)
	assert.Equal(t, 6, total)
}

func TestRotationTieBreaksOnID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	same := start.Add(-time.Hour)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")
	for _, id := range []uuid.UUID{high, low} {
		require.NoError(t, f.ms.Versions().Insert(ctx, &store.NoteVersion{
			ID: id, NoteID: f.note.ID, SaveType: auto, FreeVisible: true, CreatedAt: same,
		}))
	}
	f.seed(t, manual, manual, manual)

	res := f.save(t, f.free, auto)
	require.NotNil(t, res.Evicted)
	assert.Equal(t, low, res.Evicted.ID)
}

func TestAllManualWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, manual, manual, manual, manual, manual)

	ok, err := versions.NewLedger(f.ms.Versions()).HasAllManualAtLimit(ctx, f.note.ID, f.free.VersionLimit)
	require.NoError(t, err)
	assert.True(t, ok)

	res := f.save(t, f.free, auto)
	assert.Nil(t, res.Version)
	assert.Equal(t, versions.AlertNoRoomDueToManuals, res.InlineAlert)
	visible, _, total := f.counts(t)
	assert.Equal(t, 5, visible)
	assert.Equal(t, 5, total)

	_, err = f.svc.Save(ctx, f.free, f.note.ID, versions.Input{SaveType: manual})
	require.ErrorIs(t, err, plan.ErrLimitVersions)
	perr, ok := plan.AsPlanError(err)
	require.True(t, ok)
	assert.True(t, perr.UpgradeHint)
	assert.Equal(t, "UPGRADE_REQUIRED", perr.ExternalCode())

	_, err = f.svc.Save(ctx, f.free, f.note.ID, versions.Input{SaveType: manual})
	perr, ok = plan.AsPlanError(err)
	require.True(t, ok)
	assert.False(t, perr.UpgradeHint)

	shop, err := f.ms.Shops().GetByDomain(ctx, f.shop.Domain)
	require.NoError(t, err)
	require.NotNil(t, shop.VersionLimitPromptedAt)

	_, _, total = f.counts(t)
	assert.Equal(t, 5, total)
}

func TestManualSaveEvictsAuto(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seeded := f.seed(t, auto, manual, auto, manual, manual)

	res := f.save(t, f.free, manual)
	require.NotNil(t, res.Evicted)
	assert.Equal(t, seeded[0].ID, res.Evicted.ID)
	visible, manuals, _ := f.counts(t)
	assert.Equal(t, 5, visible)
	assert.Equal(t, 4, manuals)
}

func TestUnlimitedPlanNeverHides(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for range 8 {
		res := f.save(t, f.pro, auto)
		assert.True(t, res.Version.FreeVisible)
		assert.Nil(t, res.Evicted)
	}
	visible, _, total := f.counts(t)
	assert.Equal(t, 8, visible)
	assert.Equal(t, 8, total)

	list, meta, err := f.svc.List(context.Background(), f.pro, f.note.ID)
	require.NoError(t, err)
	assert.Len(t, list, 8)
	assert.Equal(t, plan.Unlimited, meta.VersionLimit)
}

func TestDowngradeOverflowIsTrimmed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, st := range []store.SaveType{manual, auto, auto, manual, auto, auto, manual, auto} {
		f.save(t, f.pro, st)
	}

	res := f.save(t, f.free, auto)
	require.NotNil(t, res.Version)
	visible, manuals, total := f.counts(t)
	assert.Equal(t, 5, visible)
	assert.Equal(t, 3, manuals)
	assert.Equal(t, 9, total)

	list, meta, err := f.svc.List(context.Background(), f.free, f.note.ID)
	require.NoError(t, err)
	assert.Len(t, list, 5)
	assert.Equal(t, res.Version.ID, list[0].ID)
	assert.EqualValues(t, 5, meta.VisibleCount)
	assert.False(t, meta.HasAllManualVisible)
}

func TestDeleteVersionSurfacesHiddenAuto(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	seeded := f.seed(t, auto, manual, manual, manual, manual)
	rotated := f.save(t, f.free, auto)
	require.Equal(t, seeded[0].ID, rotated.Evicted.ID)

	require.NoError(t, f.svc.DeleteVersion(ctx, f.free, f.note.ID, seeded[1].ID))

	visible, _, total := f.counts(t)
	assert.Equal(t, 5, visible)
	assert.Equal(t, 5, total)
	v, err := f.ms.Versions().Get(ctx, f.note.ID, seeded[0].ID)
	require.NoError(t, err)
	assert.True(t, v.FreeVisible)

	err = f.svc.DeleteVersion(ctx, f.free, f.note.ID, seeded[1].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHideSurfaceRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, auto, manual, auto)
	l := versions.NewLedger(f.ms.Versions())

	before, err := l.ListVisible(ctx, f.note.ID, false)
	require.NoError(t, err)

	hidden, err := l.HideOldestVisibleAuto(ctx, f.note.ID)
	require.NoError(t, err)
	require.NotNil(t, hidden)
	n, err := l.VisibleCount(ctx, f.note.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	surfaced, err := l.SurfaceNewestHiddenAuto(ctx, f.note.ID)
	require.NoError(t, err)
	require.NotNil(t, surfaced)
	assert.Equal(t, hidden.ID, surfaced.ID)

	after, err := l.ListVisible(ctx, f.note.ID, false)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	none, err := l.SurfaceNewestHiddenAuto(ctx, f.note.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRevert(t *testing.T) {
	t.Parallel()

	t.Run("checkpoints then restores", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		target := f.save(t, f.free, manual).Version

		res, err := f.svc.Revert(ctx, f.free, f.note.ID, target.ID, versions.RevertOptions{Checkpoint: true})
		require.NoError(t, err)
		assert.Equal(t, target.Title, res.Note.Title)
		assert.Equal(t, target.Content, res.Note.Content)

		require.NotNil(t, res.Checkpoint.Version)
		cp := res.Checkpoint.Version
		assert.Equal(t, auto, cp.SaveType)
		assert.Equal(t, "<p>v0</p>", cp.Content)
		assert.True(t, strings.HasPrefix(cp.VersionTitle, "Auto-saved before revert - "))
		_, err = time.Parse(time.RFC3339, strings.TrimPrefix(cp.VersionTitle, "Auto-saved before revert - "))
		assert.NoError(t, err)

		stored, err := f.ms.Versions().Get(ctx, f.note.ID, target.ID)
		require.NoError(t, err)
		assert.Equal(t, *target, *stored)
	})

	t.Run("checkpoint skipped when window is all manual", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		seeded := f.seed(t, manual, manual, manual, manual, manual)

		res, err := f.svc.Revert(context.Background(), f.free, f.note.ID, seeded[2].ID, versions.RevertOptions{Checkpoint: true})
		require.NoError(t, err)
		assert.Nil(t, res.Checkpoint.Version)
		assert.Equal(t, versions.AlertNoRoomDueToManuals, res.Checkpoint.InlineAlert)
	})

	t.Run("is atomic", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		target := f.save(t, f.free, manual).Version
		svc := versions.NewService(&failingNoteUpdates{Store: f.ms}, versions.WithClock(f.clock.Now))

		_, err := svc.Revert(ctx, f.free, f.note.ID, target.ID, versions.RevertOptions{Checkpoint: true})
		require.ErrorIs(t, err, errUpdate)

		_, _, total := f.counts(t)
		assert.Equal(t, 1, total)
		note, err := f.ms.Notes().Get(ctx, f.shop.ID, f.note.ID)
		require.NoError(t, err)
		assert.Equal(t, "<p>v0</p>", note.Content)
	})

	t.Run("unknown version", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.Revert(context.Background(), f.free, f.note.ID, uuid.New(), versions.RevertOptions{})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("hidden version is not found on a limited plan", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		seeded := f.seed(t, auto, manual, manual, manual, manual)
		rotated := f.save(t, f.free, auto)
		require.NotNil(t, rotated.Evicted)
		hidden := seeded[0]
		require.Equal(t, hidden.ID, rotated.Evicted.ID)

		_, err := f.svc.Revert(ctx, f.free, f.note.ID, hidden.ID, versions.RevertOptions{Checkpoint: true})
		require.ErrorIs(t, err, store.ErrNotFound)

		_, _, total := f.counts(t)
		assert.Equal(t, 6, total)
		note, err := f.ms.Notes().Get(ctx, f.shop.ID, f.note.ID)
		require.NoError(t, err)
		assert.Equal(t, "<p>v0</p>", note.Content)

		res, err := f.svc.Revert(ctx, f.pro, f.note.ID, hidden.ID, versions.RevertOptions{})
		require.NoError(t, err)
		assert.Equal(t, hidden.Content, res.Note.Content)
	})
}

func TestRenameVersion(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	v := f.save(t, f.free, auto).Version

	require.NoError(t, f.svc.RenameVersion(ctx, f.free, f.note.ID, v.ID, "  Before launch "))
	got, err := f.ms.Versions().Get(ctx, f.note.ID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Before launch", got.VersionTitle)
	assert.Equal(t, v.Content, got.Content)
	assert.Equal(t, v.FreeVisible, got.FreeVisible)
}

func TestOtherShopsNoteIsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	other, err := f.ms.Shops().UpsertByDomain(ctx, "other.myshopify.com")
	require.NoError(t, err)
	pc := f.free
	pc.Shop = other

	_, err = f.svc.Save(ctx, pc, f.note.ID, versions.Input{SaveType: manual})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, _, err = f.svc.List(ctx, pc, f.note.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Save(context.Background(), f.free, f.note.ID, versions.Input{SaveType: "DRAFT"})
	assert.ErrorIs(t, err, versions.ErrInvalidSaveType)
	_, err = f.svc.Save(context.Background(), plancontext.Context{}, f.note.ID, versions.Input{SaveType: manual})
	assert.ErrorIs(t, err, versions.ErrNoShop)
}

func TestPromptCooldown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	shop := f.shop.Clone()

	hint := func(now time.Time) bool {
		perr, ok := plan.AsPlanError(f.svc.BuildVersionLimitPlanError(ctx, &shop, now))
		require.True(t, ok)
		return perr.UpgradeHint
	}

	assert.False(t, versions.IsWithinVersionPromptCooldown(&shop, start))
	assert.True(t, hint(start))
	assert.True(t, versions.IsWithinVersionPromptCooldown(&shop, start.Add(47*time.Hour)))
	assert.False(t, hint(start.Add(47*time.Hour)))
	assert.True(t, hint(start.Add(48*time.Hour)))

	stored, err := f.ms.Shops().GetByDomain(ctx, shop.Domain)
	require.NoError(t, err)
	require.NotNil(t, stored.VersionLimitPromptedAt)
	assert.Equal(t, start.Add(48*time.Hour), *stored.VersionLimitPromptedAt)
}

// Property: under a limited plan the visible window never exceeds the
// limit, whatever mix of saves and deletes runs against it.
func TestVisibleWindowNeverExceedsLimit(t *testing.T) {
	t.Parallel()

	for seed := uint64(1); seed <= 5; seed++ {
		f := newFixture(t)
		ctx := context.Background()
		rng := rand.New(rand.NewPCG(seed, seed*7))

		for range 60 {
			switch rng.IntN(5) {
			case 0, 1:
				f.save(t, f.free, auto)
			case 2, 3:
				_, err := f.svc.Save(ctx, f.free, f.note.ID, versions.Input{SaveType: manual})
				if err != nil {
					require.ErrorIs(t, err, plan.ErrLimitVersions)
				}
			case 4:
				list, _, err := f.svc.List(ctx, f.free, f.note.ID)
				require.NoError(t, err)
				if len(list) > 0 {
					victim := list[rng.IntN(len(list))]
					require.NoError(t, f.svc.DeleteVersion(ctx, f.free, f.note.ID, victim.ID))
				}
			}
			visible, _, _ := f.counts(t)
			require.LessOrEqual(t, visible, int(f.free.VersionLimit), "seed %d", seed)
		}
	}
}

var errUpdate = errors.New("update failed")

// failingNoteUpdates fails note updates inside transactions.
type failingNoteUpdates struct {
	store.Store
}

func (s *failingNoteUpdates) RunInTx(ctx context.Context, fn func(context.Context, store.Store) error) error {
	return s.Store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &failingTx{Store: tx})
	})
}

type failingTx struct {
	store.Store
}

func (t *failingTx) Notes() store.NoteStore { return failingNotes{t.Store.Notes()} }

type failingNotes struct {
	store.NoteStore
}

func (failingNotes) Update(context.Context, *store.Note) error { return errUpdate }
