package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Storage is a durable string-keyed slot store. Load returns ErrNotFound when
// the key was never saved.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}
