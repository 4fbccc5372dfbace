package app

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"hotel_inventory/internal/domain"
)

// Resolver computes effective inventory from catalog defaults and stored
// overrides. It holds no state of its own.
type Resolver struct {
	catalog     domain.Catalog
	store       domain.InventoryStore
	maxDays     int
	parallelism int
}

// NewResolver bounds ranged queries to maxDays (<= 0 means unbounded).
func NewResolver(c domain.Catalog, s domain.InventoryStore, maxDays int) *Resolver {
	return &Resolver{catalog: c, store: s, maxDays: maxDays, parallelism: 8}
}

func (r *Resolver) Resolve(ctx context.Context, roomTypeID string, d domain.Date) (domain.Effective, error) {
	if d.IsZero() {
		return domain.Effective{}, errors.Wrap(domain.ErrValidation, "date is required")
	}
	rt, err := r.catalog.Get(ctx, roomTypeID)
	if err != nil {
		return domain.Effective{}, err
	}
	return r.effective(ctx, rt, d)
}

func (r *Resolver) effective(ctx context.Context, rt domain.RoomType, d domain.Date) (domain.Effective, error) {
	o, ok, err := r.store.GetOverride(ctx, rt.ID, d)
	if err != nil {
		return domain.Effective{}, err
	}
	return domain.Merge(rt, o, ok), nil
}

// ResolveRange returns exactly one entry per day in [start, end], ascending,
// however sparse the overrides are.
func (r *Resolver) ResolveRange(ctx context.Context, roomTypeID string, start, end domain.Date) ([]domain.DayInventory, error) {
	if err := domain.CheckRange(start, end, r.maxDays); err != nil {
		return nil, err
	}
	rt, err := r.catalog.Get(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	return r.resolveRange(ctx, rt, start, end)
}

func (r *Resolver) resolveRange(ctx context.Context, rt domain.RoomType, start, end domain.Date) ([]domain.DayInventory, error) {
	overrides, err := r.store.GetOverrides(ctx, rt.ID, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DayInventory, 0, domain.DaysInclusive(start, end))
	for d := start; !d.After(end); d = d.AddDays(1) {
		o, ok := overrides[d]
		out = append(out, domain.DayInventory{Date: d, Effective: domain.Merge(rt, o, ok)})
	}
	return out, nil
}

// ResolveGrid resolves every catalog room type over [start, end], in catalog order.
func (r *Resolver) ResolveGrid(ctx context.Context, start, end domain.Date) ([]domain.RoomInventory, error) {
	if err := domain.CheckRange(start, end, r.maxDays); err != nil {
		return nil, err
	}
	rooms, err := r.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoomInventory, len(rooms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, rt := range rooms {
		g.Go(func() error {
			days, err := r.resolveRange(gctx, rt, start, end)
			if err != nil {
				return err
			}
			out[i] = domain.RoomInventory{RoomTypeID: rt.ID, Days: days}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
