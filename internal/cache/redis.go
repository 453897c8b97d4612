package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// Redis stores payloads as plain Redis strings without expiry
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. prefix namespaces every key.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "get", Key: key, Err: fmt.Errorf("redis get: %w", err)}
	}
	return data, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	// Zero expiration: freshness is decided by the reader
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return &Error{Op: "put", Key: key, Err: fmt.Errorf("redis set: %w", err)}
	}
	return nil
}

// Close releases the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}

// DialRedis connects and pings until the server answers or maxWait elapses.
// A zero maxWait keeps retrying until ctx is done.
func DialRedis(ctx context.Context, opts *redis.Options, maxWait time.Duration) (*redis.Client, error) {
	client := redis.NewClient(opts)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = maxWait

	ping := func() error {
		return client.Ping(ctx).Err()
	}
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}
