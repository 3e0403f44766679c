package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Redis: распределённая блокировка через SET NX + токен владельца.
type Redis struct {
	client redis.UniversalClient
	prefix string
	poll   time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		poll:   100 * time.Millisecond,
		tokens: make(map[string]string),
	}
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (r *Redis) Lock(ctx context.Context, key string, ttl time.Duration) error {
	token := newToken()

	ok, err := r.client.SetNX(ctx, r.prefix+key, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if ok {
		r.remember(key, token)
		return nil
	}

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ok, err := r.client.SetNX(ctx, r.prefix+key, token, ttl).Result()
			if err != nil {
				return fmt.Errorf("redis setnx: %w", err)
			}
			if ok {
				r.remember(key, token)
				return nil
			}
		}
	}
}

func (r *Redis) remember(key, token string) {
	r.mu.Lock()
	r.tokens[key] = token
	r.mu.Unlock()
}

func (r *Redis) Unlock(ctx context.Context, key string) error {
	r.mu.Lock()
	token, ok := r.tokens[key]
	delete(r.tokens, key)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotHeld, key)
	}

	res, err := r.client.Eval(ctx, unlockScript, []string{r.prefix + key}, token).Int64()
	if err != nil {
		return fmt.Errorf("redis eval: %w", err)
	}
	if res == 0 {
		return fmt.Errorf("%w or expired: %s", ErrNotHeld, key)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
