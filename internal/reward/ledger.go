package reward

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
)

// Ledger counts issued rewards per challenge and outcome.
type Ledger interface {
	Record(ctx context.Context, challenge string, outcome anomaly.Outcome) (int64, error)
	Count(ctx context.Context, challenge string, outcome anomaly.Outcome) (int64, error)
}

// MemoryLedger keeps counts in process memory.
type MemoryLedger struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{counts: map[string]int64{}}
}

func (l *MemoryLedger) Record(_ context.Context, challenge string, outcome anomaly.Outcome) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := ledgerKey(challenge, outcome)
	l.counts[k]++
	return l.counts[k], nil
}

func (l *MemoryLedger) Count(_ context.Context, challenge string, outcome anomaly.Outcome) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[ledgerKey(challenge, outcome)], nil
}

// RedisLedger keeps counts in Redis so they survive restarts and are shared
// between replicas.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) Record(ctx context.Context, challenge string, outcome anomaly.Outcome) (int64, error) {
	n, err := l.client.Incr(ctx, ledgerKey(challenge, outcome)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record reward: %w", err)
	}
	return n, nil
}

func (l *RedisLedger) Count(ctx context.Context, challenge string, outcome anomaly.Outcome) (int64, error) {
	n, err := l.client.Get(ctx, ledgerKey(challenge, outcome)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read reward count: %w", err)
	}
	return n, nil
}

func ledgerKey(challenge string, outcome anomaly.Outcome) string {
	return fmt.Sprintf("reward:%s:%s", challenge, outcome)
}
