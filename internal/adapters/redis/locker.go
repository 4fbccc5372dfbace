package redisad

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"hotel_inventory/internal/domain"
)

const lockKeyPrefix = "lock:inventory:"

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// Locker is a per-key mutex shared by every instance using the same Redis.
// The TTL bounds how long a crashed holder can block a key.
type Locker struct {
	c    redis.UniversalClient
	ttl  time.Duration
	poll time.Duration
}

var _ domain.KeyLocker = (*Locker)(nil)

func NewLocker(c redis.UniversalClient, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Locker{c: c, ttl: ttl, poll: 10 * time.Millisecond}
}

func (l *Locker) Name() string { return "redis" }

// Lease is how long a held key stays locked without being released.
func (l *Locker) Lease() time.Duration { return l.ttl }

func (l *Locker) Lock(ctx context.Context, k domain.Key) (func(), error) {
	key := lockKeyPrefix + k.String()
	token := uuid.NewString()

	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
		ok, err := l.c.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, domain.StorageFault(err, "acquire lock "+k.String())
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		t.Reset(l.poll)
	}
}

// release uses its own context; the caller's may already be done.
func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.c, []string{key}, token).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("lock release failed; key expires with ttl")
	}
}
