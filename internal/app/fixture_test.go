package app_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/storage/memory"
)

// ---- fakes ----

// faultyStore wraps the memory store, counting successful writes. When failing
// is set, every write after failAfter successes returns a storage fault.
type faultyStore struct {
	*memory.Store
	writes    atomic.Int32
	failing   bool
	failAfter int32
	readDelay time.Duration
}

func (s *faultyStore) GetOverride(ctx context.Context, id string, d domain.Date) (domain.Override, bool, error) {
	if s.readDelay > 0 {
		time.Sleep(s.readDelay)
	}
	return s.Store.GetOverride(ctx, id, d)
}

func (s *faultyStore) PutOverride(ctx context.Context, id string, d domain.Date, o domain.Override) error {
	if s.failing && s.writes.Load() >= s.failAfter {
		return domain.StorageFault(errors.New("connection reset"), "put override")
	}
	if err := s.Store.PutOverride(ctx, id, d, o); err != nil {
		return err
	}
	s.writes.Add(1)
	return nil
}

// snapshot copies every override for a room over a window, keyed by date.
func (s *faultyStore) snapshot(t *testing.T, id string, start, end domain.Date) map[domain.Date]domain.Override {
	t.Helper()
	m, err := s.Store.GetOverrides(context.Background(), id, start, end)
	require.NoError(t, err)
	return m
}

// ---- fixture ----

var (
	deluxe = domain.RoomType{ID: "deluxe", Name: "Deluxe Room", BaseRate: 500000, DefaultAllotment: 5}
	suite  = domain.RoomType{ID: "suite", Name: "Garden Suite", BaseRate: 1200000, DefaultAllotment: 2}
)

type fixture struct {
	store    *faultyStore
	resolver *app.Resolver
	cells    *app.CellEditor
	bulk     *app.BulkEditor
	avail    *app.Availability
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := memory.NewCatalog(deluxe, suite)
	require.NoError(t, err)

	st := &faultyStore{Store: memory.NewStore()}
	locks := memory.NewLocker()
	r := app.NewResolver(cat, st, 366)
	return &fixture{
		store:    st,
		resolver: r,
		cells:    app.NewCellEditor(r, st, locks),
		bulk:     app.NewBulkEditor(r, st, locks, 366, 0),
		avail:    app.NewAvailability(cat, r, 30),
	}
}

func (f *fixture) put(t *testing.T, id, date string, o domain.Override) {
	t.Helper()
	require.NoError(t, f.store.Store.PutOverride(context.Background(), id, domain.MustDate(date), o))
}

func (f *fixture) effective(t *testing.T, id, date string) domain.Effective {
	t.Helper()
	e, err := f.resolver.Resolve(context.Background(), id, domain.MustDate(date))
	require.NoError(t, err)
	return e
}
