package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisGrace keeps an entry in Redis past its logical expiry so Get can still
// report Expired instead of Absent.
const redisGrace = time.Minute

type redisEnvelope[T any] struct {
	Value     T         `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Redis is a Store backed by Redis string keys holding a JSON envelope.
type Redis[T any] struct {
	client redis.Cmdable
	prefix string
	clock  Clock
}

// NewRedis stores entries under "<prefix>:<key>".
func NewRedis[T any](client redis.Cmdable, prefix string, clock Clock) *Redis[T] {
	if clock == nil {
		clock = SystemClock
	}
	return &Redis[T]{client: client, prefix: strings.TrimSuffix(prefix, ":") + ":", clock: clock}
}

func (r *Redis[T]) key(k string) string { return r.prefix + k }

func (r *Redis[T]) Put(ctx context.Context, key string, v T, ttl time.Duration) error {
	b, err := json.Marshal(redisEnvelope[T]{Value: v, ExpiresAt: r.clock.Now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), b, ttl+redisGrace).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis[T]) Get(ctx context.Context, key string) (T, Lookup, error) {
	var zero T
	env, ok, err := r.load(ctx, r.key(key))
	if err != nil || !ok {
		return zero, Absent, err
	}
	if expired(r.clock.Now(), env.ExpiresAt) {
		if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
			return zero, Expired, fmt.Errorf("redis del: %w", err)
		}
		return zero, Expired, nil
	}
	return env.Value, Present, nil
}

// Take uses GETDEL, so the read and the delete are one round trip.
func (r *Redis[T]) Take(ctx context.Context, key string) (T, Lookup, error) {
	var zero T
	b, err := r.client.GetDel(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, Absent, nil
	}
	if err != nil {
		return zero, Absent, fmt.Errorf("redis getdel: %w", err)
	}
	env, err := decodeEnvelope[T](b)
	if err != nil {
		return zero, Absent, err
	}
	if expired(r.clock.Now(), env.ExpiresAt) {
		return zero, Expired, nil
	}
	return env.Value, Present, nil
}

func (r *Redis[T]) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis[T]) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		env, ok, err := r.load(ctx, full)
		if err != nil {
			return n, err
		}
		if !ok || !expired(now, env.ExpiresAt) {
			continue
		}
		if err := r.client.Del(ctx, full).Err(); err != nil {
			return n, fmt.Errorf("redis del: %w", err)
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}

func (r *Redis[T]) load(ctx context.Context, fullKey string) (redisEnvelope[T], bool, error) {
	b, err := r.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return redisEnvelope[T]{}, false, nil
	}
	if err != nil {
		return redisEnvelope[T]{}, false, fmt.Errorf("redis get: %w", err)
	}
	env, err := decodeEnvelope[T](b)
	if err != nil {
		return env, false, err
	}
	return env, true, nil
}

func decodeEnvelope[T any](b []byte) (redisEnvelope[T], error) {
	var env redisEnvelope[T]
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("unmarshal credential: %w", err)
	}
	return env, nil
}
