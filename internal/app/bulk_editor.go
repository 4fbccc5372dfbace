package app

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hotel_inventory/internal/adapters/observability"
	"hotel_inventory/internal/domain"
)

type BulkResult struct {
	OperationID string `json:"operation_id"`
	Requested   int    `json:"requested"`
	// Updated counts dates written, always a prefix of the range in ascending order.
	Updated int `json:"updated"`
}

// BulkEditor applies a partial patch to every date of an inclusive range, one
// locked read-effective/write per date. There is no cross-date transaction: a
// failure part way leaves earlier dates written and later dates untouched.
type BulkEditor struct {
	resolver *Resolver
	store    domain.InventoryStore
	locks    domain.KeyLocker
	limiter  *rate.Limiter
	maxDays  int
}

// NewBulkEditor paces writes at writesPerSec (<= 0 disables pacing) and rejects
// ranges longer than maxDays (<= 0 means unbounded).
func NewBulkEditor(r *Resolver, s domain.InventoryStore, l domain.KeyLocker, maxDays, writesPerSec int) *BulkEditor {
	e := &BulkEditor{resolver: r, store: s, locks: l, maxDays: maxDays}
	if writesPerSec > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(writesPerSec), writesPerSec)
	}
	return e
}

func (e *BulkEditor) ApplyRange(ctx context.Context, roomTypeID string, start, end domain.Date, patch domain.Patch) (BulkResult, error) {
	res := BulkResult{OperationID: uuid.NewString()}

	// everything that can be rejected is rejected before the first write
	if err := domain.CheckRange(start, end, e.maxDays); err != nil {
		return res, err
	}
	if err := patch.Validate(); err != nil {
		return res, err
	}
	rt, err := e.resolver.catalog.Get(ctx, roomTypeID)
	if err != nil {
		return res, err
	}
	res.Requested = domain.DaysInclusive(start, end)
	observability.ObserveBulk(res.Requested)

	for d := start; !d.After(end); d = d.AddDays(1) {
		if err := e.applyDate(ctx, rt, d, patch); err != nil {
			log.Warn().Err(err).
				Str("operation_id", res.OperationID).
				Str("room_type_id", rt.ID).
				Str("failed_date", d.String()).
				Int("updated", res.Updated).
				Int("requested", res.Requested).
				Msg("bulk update stopped")
			return res, errors.Wrapf(err, "bulk update of %s stopped at %s after %d of %d dates",
				rt.ID, d, res.Updated, res.Requested)
		}
		res.Updated++
	}

	log.Info().
		Str("operation_id", res.OperationID).
		Str("room_type_id", rt.ID).
		Str("start", start.String()).
		Str("end", end.String()).
		Int("updated", res.Updated).
		Msg("bulk update applied")
	return res, nil
}

func (e *BulkEditor) applyDate(ctx context.Context, rt domain.RoomType, d domain.Date, patch domain.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return limiterErr(ctx, err)
		}
	}
	err := withKeyLock(ctx, e.locks, domain.Key{RoomTypeID: rt.ID, Date: d}, func(ctx context.Context) error {
		cur, err := e.resolver.effective(ctx, rt, d)
		if err != nil {
			return err
		}
		next := patch.Materialize(cur)
		if err := next.Validate(); err != nil {
			return err
		}
		return e.store.PutOverride(ctx, rt.ID, d, next)
	})
	observability.ObserveWrite("bulk", err)
	return err
}

// limiterErr types a failed limiter wait. The limiter gives up early, with an
// untyped error, when the next token would arrive after the ctx deadline.
func limiterErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.WithSecondaryError(ctxErr, err)
	}
	if _, ok := ctx.Deadline(); ok {
		return errors.WithSecondaryError(errors.Wrap(context.DeadlineExceeded, "bulk pacing"), err)
	}
	return err
}
