package app

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"hotel_inventory/internal/adapters/observability"
	"hotel_inventory/internal/domain"
)

type named interface{ Name() string }

// leased lockers hand out locks that expire on their own after Lease.
type leased interface{ Lease() time.Duration }

func lockerName(l domain.KeyLocker) string {
	if n, ok := l.(named); ok {
		return n.Name()
	}
	return "custom"
}

// withKeyLock runs fn while holding the lock for k. The read of the current
// effective value and the write of the new override must both happen inside fn,
// using the context it is given. For leased locks that context expires before
// the lease does.
func withKeyLock(ctx context.Context, l domain.KeyLocker, k domain.Key, fn func(ctx context.Context) error) error {
	start := time.Now()
	unlock, err := l.Lock(ctx, k)
	observability.ObserveLockWait(lockerName(l), time.Since(start))
	if err != nil {
		return errors.Wrapf(err, "lock %s", k)
	}
	defer unlock()

	if ls, ok := l.(leased); ok && ls.Lease() > 0 {
		// headroom for the release round trip
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ls.Lease()*4/5)
		defer cancel()
	}
	return fn(ctx)
}
