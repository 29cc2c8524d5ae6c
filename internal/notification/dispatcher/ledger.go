package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MemoryLedger remembers claimed job ids for the life of the process.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[uuid.UUID]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claimed: make(map[uuid.UUID]struct{})}
}

func (l *MemoryLedger) Claim(_ context.Context, jobID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.claimed[jobID]; ok {
		return false, nil
	}
	l.claimed[jobID] = struct{}{}
	return true, nil
}

// RedisLedger claims job ids with SET NX so every replica sees the claim.
// Claims expire after ttl, which must exceed the queue's redelivery window.
type RedisLedger struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisLedger(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisLedger) Claim(ctx context.Context, jobID uuid.UUID) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+":"+jobID.String(), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim dispatch job: %w", err)
	}
	return ok, nil
}
