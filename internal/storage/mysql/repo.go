// Package mysql persists room types and inventory overrides in MySQL.
package mysql

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"hotel_inventory/internal/domain"
)

// Repo serves both the room catalog and the override store.
type Repo struct {
	db               *sql.DB
	defaultAllotment int
}

// New returns a repo that fills a NULL default_allotment with defaultAllotment.
func New(db *sql.DB, defaultAllotment int) *Repo {
	return &Repo{db: db, defaultAllotment: defaultAllotment}
}

// fault classifies a driver error. Cancellation is the caller's doing and is
// returned as is so it is never retried.
func fault(ctx context.Context, err error, op string) error {
	if ctx.Err() != nil {
		return errors.WithSecondaryError(ctx.Err(), err)
	}
	return domain.StorageFault(err, op)
}

func valAllotment(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// UpsertRoomType creates or replaces a room type. A nil defaultAllotment keeps
// the column NULL so the configured global default applies.
func (r *Repo) UpsertRoomType(ctx context.Context, rt domain.RoomType, defaultAllotment *int) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, upsertRoomTypeSQL, rt.ID, rt.Name, rt.BaseRate, valAllotment(defaultAllotment))
	if err != nil {
		return fault(ctx, err, "upsert room type")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repo) scanRoomType(row rowScanner) (domain.RoomType, error) {
	var (
		rt        domain.RoomType
		allotment sql.NullInt64
	)
	if err := row.Scan(&rt.ID, &rt.Name, &rt.BaseRate, &allotment); err != nil {
		return domain.RoomType{}, err
	}
	rt.DefaultAllotment = r.defaultAllotment
	if allotment.Valid {
		rt.DefaultAllotment = int(allotment.Int64)
	}
	return rt, nil
}

func (r *Repo) Get(ctx context.Context, id string) (domain.RoomType, error) {
	rt, err := r.scanRoomType(r.db.QueryRowContext(ctx, getRoomTypeSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RoomType{}, domain.RoomNotFound(id)
		}
		return domain.RoomType{}, fault(ctx, err, "get room type")
	}
	return rt, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, listRoomTypesSQL)
	if err != nil {
		return nil, fault(ctx, err, "list room types")
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		rt, err := r.scanRoomType(rows)
		if err != nil {
			return nil, fault(ctx, err, "scan room type")
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fault(ctx, err, "list room types")
	}
	return out, nil
}

func (r *Repo) GetOverride(ctx context.Context, roomTypeID string, d domain.Date) (domain.Override, bool, error) {
	var o domain.Override
	err := r.db.QueryRowContext(ctx, getOverrideSQL, roomTypeID, d).Scan(&o.Allotment, &o.Rate, &o.Closed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Override{}, false, nil
		}
		return domain.Override{}, false, fault(ctx, err, "get override")
	}
	return o, true, nil
}

func (r *Repo) GetOverrides(ctx context.Context, roomTypeID string, start, end domain.Date) (map[domain.Date]domain.Override, error) {
	if err := domain.CheckRange(start, end, 0); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, getOverridesSQL, roomTypeID, start, end)
	if err != nil {
		return nil, fault(ctx, err, "get overrides")
	}
	defer rows.Close()

	out := make(map[domain.Date]domain.Override)
	for rows.Next() {
		var (
			d domain.Date
			o domain.Override
		)
		if err := rows.Scan(&d, &o.Allotment, &o.Rate, &o.Closed); err != nil {
			return nil, fault(ctx, err, "scan override")
		}
		out[d] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fault(ctx, err, "get overrides")
	}
	return out, nil
}

func (r *Repo) PutOverride(ctx context.Context, roomTypeID string, d domain.Date, o domain.Override) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertOverrideSQL, roomTypeID, d, o.Allotment, o.Rate, o.Closed); err != nil {
		return fault(ctx, err, "put override")
	}
	return nil
}
