package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"outreach/config"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisThrottle counts dispatches per sequence per local day in Redis so the
// cap holds across processes.
type RedisThrottle struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisThrottle(client *redis.Client) *RedisThrottle {
	return &RedisThrottle{
		client: client,
		prefix: "outreach:throttle",
		ttl:    48 * time.Hour,
	}
}

func (t *RedisThrottle) key(sequenceID uint, day string) string {
	return fmt.Sprintf("%s:%d:%s", t.prefix, sequenceID, day)
}

func (t *RedisThrottle) Count(ctx context.Context, sequenceID uint, day string) (int, error) {
	n, err := t.client.Get(ctx, t.key(sequenceID, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (t *RedisThrottle) Incr(ctx context.Context, sequenceID uint, day string) (int, error) {
	key := t.key(sequenceID, day)
	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// RunLock keeps two runs from overlapping. TryLock reports false when
// another holder has it.
type RunLock interface {
	TryLock(ctx context.Context) (unlock func(), acquired bool, err error)
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisRunLock is a SET NX lock with a TTL so a crashed holder cannot block
// runs forever.
type RedisRunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisRunLock(client *redis.Client, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{client: client, key: "outreach:runner:lock", ttl: ttl}
}

func (l *RedisRunLock) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		releaseScript.Run(context.Background(), l.client, []string{l.key}, token)
	}, true, nil
}

// LocalRunLock is the single-process fallback when Redis is disabled.
type LocalRunLock struct {
	mu sync.Mutex
}

func (l *LocalRunLock) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return func() {}, false, nil
	}
	return l.mu.Unlock, true, nil
}
