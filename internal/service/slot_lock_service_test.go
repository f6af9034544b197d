package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
)

func newRedisLocker(t *testing.T) (*RedisSlotLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	log, _ := test.NewNullLogger()
	return NewRedisSlotLocker(client, log, 5*time.Second), mr
}

func TestRedisSlotLockerExcludesSecondHolder(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()
	doctorID := uuid.New()
	at := time.Date(2030, 5, 6, 10, 0, 0, 0, time.UTC)

	release, err := locker.Acquire(ctx, doctorID, at)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := locker.Acquire(ctx, doctorID, at); !errors.Is(err, ErrSlotLocked) {
		t.Fatalf("second acquire err = %v, want ErrSlotLocked", err)
	}

	// Other slots are independent
	otherRelease, err := locker.Acquire(ctx, doctorID, at.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("other slot: %v", err)
	}
	otherRelease()

	release()
	if mr.Exists(slotKey(doctorID, at)) {
		t.Error("lock key still present after release")
	}

	again, err := locker.Acquire(ctx, doctorID, at)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}

	// a repeated release of the old holder must not free the new one
	release()
	if !mr.Exists(slotKey(doctorID, at)) {
		t.Error("stale release removed the new holder's lock")
	}
	again()
}

func TestRedisSlotLockerReleaseKeepsForeignToken(t *testing.T) {
	locker, mr := newRedisLocker(t)
	doctorID := uuid.New()
	at := time.Date(2030, 5, 6, 11, 0, 0, 0, time.UTC)

	release, err := locker.Acquire(context.Background(), doctorID, at)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Simulate expiry followed by another holder
	key := slotKey(doctorID, at)
	mr.Set(key, "someone-else")

	release()

	got, err := mr.Get(key)
	if err != nil || got != "someone-else" {
		t.Errorf("foreign lock = %q, %v; want untouched", got, err)
	}
}

func TestRedisSlotLockerExpires(t *testing.T) {
	locker, mr := newRedisLocker(t)
	doctorID := uuid.New()
	at := time.Date(2030, 5, 6, 12, 0, 0, 0, time.UTC)

	if _, err := locker.Acquire(context.Background(), doctorID, at); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(6 * time.Second)

	release, err := locker.Acquire(context.Background(), doctorID, at)
	if err != nil {
		t.Fatalf("acquire after ttl: %v", err)
	}
	release()
}

func TestLocalSlotLockerConcurrentAcquire(t *testing.T) {
	locker := NewLocalSlotLocker()
	doctorID := uuid.New()
	at := time.Date(2030, 5, 6, 10, 0, 0, 0, time.UTC)

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
		releases []func()
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), doctorID, at)
			if err != nil {
				if !errors.Is(err, ErrSlotLocked) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			acquired++
			releases = append(releases, release)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if acquired != 1 {
		t.Fatalf("acquired = %d, want 1", acquired)
	}

	releases[0]()
	releases[0]() // second call is a no-op

	release, err := locker.Acquire(context.Background(), doctorID, at)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release()
}

func TestLocalSlotLockerHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLocalSlotLocker().Acquire(ctx, uuid.New(), time.Now()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
