package cache

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/fixtures-ics/internal/crypto"
)

// Sealed encrypts payloads before handing them to the wrapped store
type Sealed struct {
	store Store
	enc   *crypto.Encryptor
}

// NewSealed wraps store. With a nil encryptor the store is returned as is.
func NewSealed(store Store, enc *crypto.Encryptor) Store {
	if enc == nil {
		return store
	}
	return &Sealed{store: store, enc: enc}
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	plain, err := s.enc.Open(data)
	if err != nil {
		return nil, &Error{Op: "open", Key: key, Err: fmt.Errorf("decrypting payload: %w", err)}
	}
	return plain, nil
}

func (s *Sealed) Put(ctx context.Context, key string, value []byte) error {
	data, err := s.enc.Seal(value)
	if err != nil {
		return &Error{Op: "seal", Key: key, Err: fmt.Errorf("encrypting payload: %w", err)}
	}
	return s.store.Put(ctx, key, data)
}
