// Package memory holds process-local implementations of the inventory ports.
package memory

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"hotel_inventory/internal/domain"
)

const shardCount = 64

type shard struct {
	mu sync.RWMutex
	m  map[domain.Key]domain.Override
}

// Store keeps overrides in key-hashed shards. Writes to a key replace the whole
// record under the shard lock, so readers never see a torn override.
type Store struct {
	shards [shardCount]*shard
}

func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{m: make(map[domain.Key]domain.Override)}
	}
	return s
}

func (s *Store) shardFor(k domain.Key) *shard {
	return s.shards[xxhash.Sum64String(k.String())%shardCount]
}

func (s *Store) GetOverride(ctx context.Context, roomTypeID string, d domain.Date) (domain.Override, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Override{}, false, err
	}
	k := domain.Key{RoomTypeID: roomTypeID, Date: d}
	sh := s.shardFor(k)
	sh.mu.RLock()
	o, ok := sh.m[k]
	sh.mu.RUnlock()
	return o, ok, nil
}

func (s *Store) GetOverrides(ctx context.Context, roomTypeID string, start, end domain.Date) (map[domain.Date]domain.Override, error) {
	if err := domain.CheckRange(start, end, 0); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[domain.Date]domain.Override)
	for d := start; !d.After(end); d = d.AddDays(1) {
		k := domain.Key{RoomTypeID: roomTypeID, Date: d}
		sh := s.shardFor(k)
		sh.mu.RLock()
		o, ok := sh.m[k]
		sh.mu.RUnlock()
		if ok {
			out[d] = o
		}
	}
	return out, nil
}

func (s *Store) PutOverride(ctx context.Context, roomTypeID string, d domain.Date, o domain.Override) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := domain.Key{RoomTypeID: roomTypeID, Date: d}
	sh := s.shardFor(k)
	sh.mu.Lock()
	sh.m[k] = o
	sh.mu.Unlock()
	return nil
}

// Len reports the number of stored overrides.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}
