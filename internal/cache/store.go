package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has never been stored
var ErrNotFound = errors.New("cache: key not found")

// Store is a concurrency-safe key/value store of opaque payloads
type Store interface {
	// Get returns the payload stored under key, ErrNotFound when absent
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value
	Put(ctx context.Context, key string, value []byte) error
}

// Error reports a store that failed to serve a request
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
