package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"object-detection/internal/logging"
)

// ErrLocked is returned by TryLock when another holder owns the key.
var ErrLocked = errors.New("lock is held")

// Lock is a held per-video lock.
type Lock interface {
	Unlock(ctx context.Context) error
}

// Locker hands out per-video locks without blocking.
type Locker interface {
	TryLock(ctx context.Context, videoID string) (Lock, error)
}

// MemoryLocker is a Locker for a single process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker returns an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

// TryLock implements Locker.
func (m *MemoryLocker) TryLock(_ context.Context, videoID string) (Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[videoID]; ok {
		return nil, ErrLocked
	}
	m.held[videoID] = struct{}{}
	return &memoryLock{m: m, id: videoID}, nil
}

func (m *MemoryLocker) isHeld(videoID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[videoID]
	return ok
}

type memoryLock struct {
	m    *MemoryLocker
	id   string
	once sync.Once
}

func (l *memoryLock) Unlock(context.Context) error {
	l.once.Do(func() {
		l.m.mu.Lock()
		delete(l.m.held, l.id)
		l.m.mu.Unlock()
	})
	return nil
}

// DefaultLockTTL bounds how long a crashed holder can block a video. A live
// holder renews its key every third of the ttl.
const DefaultLockTTL = time.Hour

const redisKeyPrefix = "object-detection:run:"

// unlockScript deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the key only if it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker shares per-video locks across processes with SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLocker wraps client. A zero ttl uses DefaultLockTTL.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// Key returns the Redis key guarding videoID.
func (r *RedisLocker) Key(videoID string) string {
	return redisKeyPrefix + videoID
}

// TryLock implements Locker. The returned lock keeps its key alive until
// Unlock.
func (r *RedisLocker) TryLock(ctx context.Context, videoID string) (Lock, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.Key(videoID), token, r.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l := &redisLock{
		client: r.client,
		key:    r.Key(videoID),
		token:  token,
		ttl:    r.ttl,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go l.renew(rctx)
	return l, nil
}

type redisLock struct {
	client redis.UniversalClient
	key    string
	token  string
	ttl    time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func (l *redisLock) renew(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := renewScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				logging.Warn("failed to renew run lock %s: %v", l.key, err)
			case n == 0:
				logging.Warn("run lock %s was lost before the run finished", l.key)
				return
			}
		}
	}
}

func (l *redisLock) Unlock(ctx context.Context) error {
	l.cancel()
	<-l.done
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
