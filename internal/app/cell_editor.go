package app

import (
	"context"

	"github.com/cockroachdb/errors"

	"hotel_inventory/internal/adapters/observability"
	"hotel_inventory/internal/domain"
)

// CellEditor changes one field of one date. The first edit of a date writes a
// full override, snapshotting the other two fields from their effective values.
type CellEditor struct {
	resolver *Resolver
	store    domain.InventoryStore
	locks    domain.KeyLocker
}

func NewCellEditor(r *Resolver, s domain.InventoryStore, l domain.KeyLocker) *CellEditor {
	return &CellEditor{resolver: r, store: s, locks: l}
}

func (e *CellEditor) SetField(ctx context.Context, roomTypeID string, d domain.Date, field domain.Field, value any) (domain.Effective, error) {
	patch, err := domain.PatchFor(field, value)
	if err != nil {
		return domain.Effective{}, err
	}
	if d.IsZero() {
		return domain.Effective{}, errors.Wrap(domain.ErrValidation, "date is required")
	}
	rt, err := e.resolver.catalog.Get(ctx, roomTypeID)
	if err != nil {
		return domain.Effective{}, err
	}

	var out domain.Effective
	err = withKeyLock(ctx, e.locks, domain.Key{RoomTypeID: rt.ID, Date: d}, func(ctx context.Context) error {
		cur, err := e.resolver.effective(ctx, rt, d)
		if err != nil {
			return err
		}
		next := patch.Materialize(cur)
		if err := next.Validate(); err != nil {
			return err
		}
		if err := e.store.PutOverride(ctx, rt.ID, d, next); err != nil {
			return err
		}
		out = domain.Merge(rt, next, true)
		return nil
	})
	observability.ObserveWrite("cell", err)
	if err != nil {
		return domain.Effective{}, errors.Wrapf(err, "set %s on %s %s", field, rt.ID, d)
	}
	return out, nil
}
