package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/shopnotes/store"
)

type shops struct{ s *Store }

func (r shops) UpsertByDomain(_ context.Context, domain string) (*store.Shop, error) {
	if domain == "" {
		return nil, store.ErrInvalidArgument
	}
	var out store.Shop
	err := r.s.with(func(st *state) error {
		for _, sh := range st.shops {
			if sh.Domain == domain {
				out = sh.Clone()
				return nil
			}
		}
		now := r.s.now().UTC()
		out = store.Shop{
			ID:         uuid.New(),
			Domain:     domain,
			Plan:       "FREE",
			PlanStatus: "NONE",
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		st.shops[out.ID] = out.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r shops) GetByDomain(_ context.Context, domain string) (*store.Shop, error) {
	var out *store.Shop
	err := r.s.with(func(st *state) error {
		for _, sh := range st.shops {
			if sh.Domain == domain {
				cp := sh.Clone()
				out = &cp
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

// GetForUpdate needs no lock: transactions are already serialized.
func (r shops) GetForUpdate(_ context.Context, id uuid.UUID) (*store.Shop, error) {
	var out *store.Shop
	err := r.s.with(func(st *state) error {
		sh, ok := st.shops[id]
		if !ok {
			return store.ErrNotFound
		}
		cp := sh.Clone()
		out = &cp
		return nil
	})
	return out, err
}

func (r shops) Update(_ context.Context, sh *store.Shop) error {
	return r.s.with(func(st *state) error {
		cur, ok := st.shops[sh.ID]
		if !ok {
			return store.ErrNotFound
		}
		next := sh.Clone()
		next.Domain = cur.Domain
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.s.now().UTC()
		st.shops[sh.ID] = next
		sh.UpdatedAt = next.UpdatedAt
		return nil
	})
}

func (r shops) DowngradeToFree(_ context.Context, sh *store.Shop) (bool, error) {
	var applied bool
	err := r.s.with(func(st *state) error {
		cur, ok := st.shops[sh.ID]
		if !ok {
			return store.ErrNotFound
		}
		if cur.Plan != sh.Plan || cur.PlanStatus != sh.PlanStatus || !sameTime(cur.BillingLastSyncAt, sh.BillingLastSyncAt) {
			return nil
		}
		cur.Plan = "FREE"
		cur.PlanManaged = false
		cur.UpdatedAt = r.s.now().UTC()
		st.shops[sh.ID] = cur
		sh.Plan, sh.PlanManaged, sh.UpdatedAt = cur.Plan, cur.PlanManaged, cur.UpdatedAt
		applied = true
		return nil
	})
	return applied, err
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (r shops) SetVersionLimitPromptedAt(_ context.Context, shopID uuid.UUID, at time.Time) error {
	return r.s.with(func(st *state) error {
		cur, ok := st.shops[shopID]
		if !ok {
			return store.ErrNotFound
		}
		cur.VersionLimitPromptedAt = &at
		st.shops[shopID] = cur
		return nil
	})
}

func (r shops) RecordSyncFailure(_ context.Context, shopID uuid.UUID, at time.Time, msg string) error {
	return r.s.with(func(st *state) error {
		cur, ok := st.shops[shopID]
		if !ok {
			return store.ErrNotFound
		}
		cur.BillingLastSyncAt = &at
		cur.BillingLastSyncError = msg
		st.shops[shopID] = cur
		return nil
	})
}
