package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryLedger remembers webhook delivery IDs. MarkDelivered reports
// whether id is seen for the first time; Forget drops a mark so that a
// redelivery of id is processed again.
type DeliveryLedger interface {
	MarkDelivered(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

// ledgerClient is the subset of redis.Cmdable the ledger needs.
type ledgerClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const redisLedgerPrefix = "shopnotes:webhook:"

// RedisLedger keeps delivery IDs as keys that expire after ttl.
type RedisLedger struct {
	client ledgerClient
	ttl    time.Duration
}

func NewRedisLedger(client ledgerClient, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) MarkDelivered(ctx context.Context, id string) (bool, error) {
	ok, err := l.client.SetNX(ctx, redisLedgerPrefix+id, time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, errors.Join(ErrLedgerUnavailable, err)
	}
	return ok, nil
}

func (l *RedisLedger) Forget(ctx context.Context, id string) error {
	if err := l.client.Del(ctx, redisLedgerPrefix+id).Err(); err != nil {
		return errors.Join(ErrLedgerUnavailable, err)
	}
	return nil
}

// MemoryLedger is a process-local ledger for development and tests.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (l *MemoryLedger) MarkDelivered(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, exp := range l.seen {
		if !exp.After(now) {
			delete(l.seen, k)
		}
	}
	if _, ok := l.seen[id]; ok {
		return false, nil
	}
	l.seen[id] = now.Add(l.ttl)
	return true, nil
}

func (l *MemoryLedger) Forget(_ context.Context, id string) error {
	l.mu.Lock()
	delete(l.seen, id)
	l.mu.Unlock()
	return nil
}
