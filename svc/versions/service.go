package versions

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
)

var (
	ErrInvalidSaveType = errors.New("versions.errors.invalid_save_type")
	ErrNoShop          = errors.New("versions.errors.no_shop_in_plan_context")
)

// errManualWindowFull aborts a transaction whose manual save found no
// autosave to evict. The caller turns it into LIMIT_VERSIONS after rollback.
var errManualWindowFull = errors.New("versions: manual save with full window")

const checkpointTitlePrefix = "Auto-saved before revert - "

type Input struct {
	Title        string
	Content      string
	VersionTitle string
	Snapshot     json.RawMessage
	SaveType     store.SaveType
}

type SaveResult struct {
	// Version is the inserted row, nil when the save was skipped.
	Version *store.NoteVersion
	// Evicted is the autosave hidden to make room, if any.
	Evicted     *store.NoteVersion
	InlineAlert InlineAlert
}

type RevertOptions struct {
	// Checkpoint saves the current note content as an autosave first.
	Checkpoint bool
}

type RevertResult struct {
	Note       *store.Note
	Checkpoint SaveResult
}

type Service struct {
	store store.Store
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("versions"))
	return s
}

// Save records a new version of a note under the plan's save policy.
func (s *Service) Save(ctx context.Context, pc plancontext.Context, noteID uuid.UUID, in Input) (SaveResult, error) {
	if pc.Shop == nil {
		return SaveResult{}, ErrNoShop
	}
	if !in.SaveType.Valid() {
		return SaveResult{}, ErrInvalidSaveType
	}
	now := s.now().UTC()

	var res SaveResult
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.Notes().Get(ctx, pc.Shop.ID, noteID); err != nil {
			return err
		}
		var err error
		res, err = s.save(ctx, tx, pc, noteID, in, now)
		return err
	})
	if errors.Is(err, errManualWindowFull) {
		return SaveResult{}, s.limitError(ctx, pc, noteID, now)
	}
	return res, err
}

// save applies the policy inside tx:
//  1. unlimited plans always insert a visible row;
//  2. below the limit the row is inserted visible;
//  3. at the limit an autosave is evicted to make room, unless every
//     visible row is manual.
//
// Overflow left over from a downgrade is trimmed first by hiding autosaves.
func (s *Service) save(ctx context.Context, tx store.Store, pc plancontext.Context, noteID uuid.UUID, in Input, now time.Time) (SaveResult, error) {
	v := &store.NoteVersion{
		NoteID:       noteID,
		Title:        in.Title,
		Content:      in.Content,
		VersionTitle: in.VersionTitle,
		Snapshot:     in.Snapshot,
		SaveType:     in.SaveType,
		FreeVisible:  true,
		CreatedAt:    now,
	}
	vs := tx.Versions()

	if pc.UnlimitedVersions() {
		if err := vs.Insert(ctx, v); err != nil {
			return SaveResult{}, err
		}
		return SaveResult{Version: v}, nil
	}

	limit := pc.VersionLimit
	visible, manual, err := vs.CountVisible(ctx, noteID)
	if err != nil {
		return SaveResult{}, err
	}
	for visible > limit {
		hidden, err := vs.HideOldestVisibleAuto(ctx, noteID)
		if err != nil {
			return SaveResult{}, err
		}
		if hidden == nil {
			break
		}
		visible--
	}

	if visible < limit {
		if err := vs.Insert(ctx, v); err != nil {
			return SaveResult{}, err
		}
		return SaveResult{Version: v}, nil
	}

	if visible == manual {
		if in.SaveType == store.SaveTypeAuto {
			s.log.InfoContext(ctx, "autosave skipped, version window is all manual",
				logger.NoteID(noteID), logger.ShopDomain(pc.Shop.Domain))
			return SaveResult{InlineAlert: AlertNoRoomDueToManuals}, nil
		}
		return SaveResult{}, errManualWindowFull
	}

	if in.SaveType == store.SaveTypeAuto {
		evicted, err := NewLedger(vs).RotateAutoAndInsertVisible(ctx, noteID, v)
		if err != nil {
			return SaveResult{}, err
		}
		if evicted == nil {
			return SaveResult{InlineAlert: AlertNoRoomDueToManuals}, nil
		}
		return SaveResult{Version: v, Evicted: evicted}, nil
	}

	evicted, err := vs.HideOldestVisibleAuto(ctx, noteID)
	if err != nil {
		return SaveResult{}, err
	}
	if err := vs.Insert(ctx, v); err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Version: v, Evicted: evicted}, nil
}

func (s *Service) limitError(ctx context.Context, pc plancontext.Context, noteID uuid.UUID, now time.Time) error {
	s.log.InfoContext(ctx, "manual save blocked by version limit",
		logger.NoteID(noteID), logger.ShopDomain(pc.Shop.Domain))
	return buildVersionLimitPlanError(ctx, s.store.Shops(), pc.Shop, now)
}

// BuildVersionLimitPlanError returns the LIMIT_VERSIONS error for shop and,
// outside the prompt cooldown, persists now as the last prompt time.
func (s *Service) BuildVersionLimitPlanError(ctx context.Context, shop *store.Shop, now time.Time) error {
	return buildVersionLimitPlanError(ctx, s.store.Shops(), shop, now)
}

// Revert restores a note to the content of one of its versions. The
// optional checkpoint and the note update commit together.
func (s *Service) Revert(ctx context.Context, pc plancontext.Context, noteID, versionID uuid.UUID, opts RevertOptions) (RevertResult, error) {
	if pc.Shop == nil {
		return RevertResult{}, ErrNoShop
	}
	now := s.now().UTC()

	var res RevertResult
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		note, err := tx.Notes().Get(ctx, pc.Shop.ID, noteID)
		if err != nil {
			return err
		}
		target, err := tx.Versions().Get(ctx, noteID, versionID)
		if err != nil {
			return err
		}
		// Versions outside the visible window do not exist for limited plans.
		if !pc.UnlimitedVersions() && !target.FreeVisible {
			return store.ErrNotFound
		}

		if opts.Checkpoint {
			res.Checkpoint, err = s.save(ctx, tx, pc, noteID, Input{
				Title:        note.Title,
				Content:      note.Content,
				VersionTitle: checkpointTitlePrefix + now.Format(time.RFC3339),
				SaveType:     store.SaveTypeAuto,
			}, now)
			if err != nil {
				return err
			}
		}

		note.Title = target.Title
		note.Content = target.Content
		note.UpdatedAt = now
		if err := tx.Notes().Update(ctx, note); err != nil {
			return err
		}
		res.Note = note
		return nil
	})
	if err != nil {
		return RevertResult{}, err
	}
	return res, nil
}

// DeleteVersion removes a version and, under a limited plan, surfaces
// hidden autosaves into the freed room.
func (s *Service) DeleteVersion(ctx context.Context, pc plancontext.Context, noteID, versionID uuid.UUID) error {
	if pc.Shop == nil {
		return ErrNoShop
	}
	return s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.Notes().Get(ctx, pc.Shop.ID, noteID); err != nil {
			return err
		}
		vs := tx.Versions()
		if err := vs.Delete(ctx, noteID, versionID); err != nil {
			return err
		}
		if pc.UnlimitedVersions() {
			return nil
		}

		visible, _, err := vs.CountVisible(ctx, noteID)
		if err != nil {
			return err
		}
		for ; visible < pc.VersionLimit; visible++ {
			surfaced, err := vs.SurfaceNewestHiddenAuto(ctx, noteID)
			if err != nil {
				return err
			}
			if surfaced == nil {
				break
			}
		}
		return nil
	})
}

// RenameVersion sets the user label of a version. Nothing else changes.
func (s *Service) RenameVersion(ctx context.Context, pc plancontext.Context, noteID, versionID uuid.UUID, title string) error {
	if pc.Shop == nil {
		return ErrNoShop
	}
	return s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.Notes().Get(ctx, pc.Shop.ID, noteID); err != nil {
			return err
		}
		return tx.Versions().SetTitle(ctx, noteID, versionID, strings.TrimSpace(title))
	})
}

// List returns the versions the plan can see, newest first, with the
// window summary.
func (s *Service) List(ctx context.Context, pc plancontext.Context, noteID uuid.UUID) ([]store.NoteVersion, Meta, error) {
	if pc.Shop == nil {
		return nil, Meta{}, ErrNoShop
	}
	if _, err := s.store.Notes().Get(ctx, pc.Shop.ID, noteID); err != nil {
		return nil, Meta{}, err
	}
	l := NewLedger(s.store.Versions())
	list, err := l.ListVisible(ctx, noteID, pc.UnlimitedVersions())
	if err != nil {
		return nil, Meta{}, err
	}
	meta, err := l.BuildMeta(ctx, noteID, pc, "")
	if err != nil {
		return nil, Meta{}, err
	}
	return list, meta, nil
}
