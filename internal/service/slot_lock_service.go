package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Errors
// =============================================================================

// ErrSlotLocked is returned when another request is already booking the same slot
var ErrSlotLocked = errors.New("slot is being booked by another request")

// releaseSlotScript deletes the lock only when it still holds our token,
// so an expired lock re-acquired by someone else is never removed.
var releaseSlotScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// =============================================================================
// Constants
// =============================================================================

const (
	RedisSlotLockKeyPrefix = "slot_lock:"

	// Upper bound for how long one booking may hold a slot
	DefaultSlotLockTTL = 10 * time.Second

	redisReleaseTimeout = 2 * time.Second
)

// =============================================================================
// Types
// =============================================================================

// SlotLocker serializes booking attempts for one (doctor, instant) pair.
// release must be called when Acquire succeeds; calling it again is a no-op.
type SlotLocker interface {
	Acquire(ctx context.Context, doctorID uuid.UUID, at time.Time) (release func(), err error)
}

func slotKey(doctorID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s%s:%d", RedisSlotLockKeyPrefix, doctorID, at.Unix())
}

// RedisSlotLocker holds the lock in Redis so every API instance sees it.
type RedisSlotLocker struct {
	client *redis.Client
	log    *logrus.Logger
	ttl    time.Duration
}

func NewRedisSlotLocker(client *redis.Client, log *logrus.Logger, ttl time.Duration) *RedisSlotLocker {
	if ttl <= 0 {
		ttl = DefaultSlotLockTTL
	}
	return &RedisSlotLocker{client: client, log: log, ttl: ttl}
}

func (l *RedisSlotLocker) Acquire(ctx context.Context, doctorID uuid.UUID, at time.Time) (func(), error) {
	key := slotKey(doctorID, at)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.log.Warnf("Failed to acquire slot lock %s: %+v", key, err)
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return nil, ErrSlotLocked
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// The request context may already be cancelled here
			rctx, cancel := context.WithTimeout(context.Background(), redisReleaseTimeout)
			defer cancel()

			if err := releaseSlotScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
				l.log.Warnf("Failed to release slot lock %s: %+v", key, err)
			}
		})
	}

	return release, nil
}

// LocalSlotLocker is the single-process variant used without Redis.
type LocalSlotLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalSlotLocker() *LocalSlotLocker {
	return &LocalSlotLocker{held: make(map[string]struct{})}
}

func (l *LocalSlotLocker) Acquire(ctx context.Context, doctorID uuid.UUID, at time.Time) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := slotKey(doctorID, at)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrSlotLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}

	return release, nil
}
