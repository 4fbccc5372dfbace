// Package retry wraps an InventoryStore with bounded retries of storage faults.
// Puts replace whole records, so repeating one is safe.
package retry

import (
	"context"
	crand "crypto/rand"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"hotel_inventory/internal/adapters/observability"
	"hotel_inventory/internal/domain"
)

type Store struct {
	next     domain.InventoryStore
	attempts int
	base     time.Duration
}

// New retries each call up to retries extra times. retries <= 0 disables retrying.
func New(next domain.InventoryStore, retries int) *Store {
	if retries < 0 {
		retries = 0
	}
	return &Store{next: next, attempts: retries + 1, base: 50 * time.Millisecond}
}

// WithBaseDelay sets the first backoff step.
func (s *Store) WithBaseDelay(d time.Duration) *Store {
	s.base = d
	return s
}

func (s *Store) GetOverride(ctx context.Context, id string, d domain.Date) (domain.Override, bool, error) {
	var (
		o  domain.Override
		ok bool
	)
	err := s.do(ctx, "get_override", func() error {
		var err error
		o, ok, err = s.next.GetOverride(ctx, id, d)
		return err
	})
	return o, ok, err
}

func (s *Store) GetOverrides(ctx context.Context, id string, start, end domain.Date) (map[domain.Date]domain.Override, error) {
	var m map[domain.Date]domain.Override
	err := s.do(ctx, "get_overrides", func() error {
		var err error
		m, err = s.next.GetOverrides(ctx, id, start, end)
		return err
	})
	return m, err
}

func (s *Store) PutOverride(ctx context.Context, id string, d domain.Date, o domain.Override) error {
	return s.do(ctx, "put_override", func() error {
		return s.next.PutOverride(ctx, id, d, o)
	})
}

// do runs fn until it succeeds, fails with anything but a storage fault, or
// runs out of attempts. The last error is returned unchanged.
func (s *Store) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < s.attempts; i++ {
		if err = fn(); err == nil || !errors.Is(err, domain.ErrStorageFault) {
			return err
		}
		if i == s.attempts-1 {
			break
		}
		observability.ObserveRetry(op)
		log.Debug().Err(err).Str("op", op).Int("attempt", i+1).
			Str("err_type", observability.LabelErr(errors.UnwrapAll(err))).
			Msg("retrying store call")
		if !sleepCtx(ctx, s.backoff(i)) {
			return errors.WithSecondaryError(ctx.Err(), err)
		}
	}
	return err
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff doubles from base each attempt with up to +50% jitter.
func (s *Store) backoff(i int) time.Duration {
	base := time.Duration(1<<i) * s.base
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
