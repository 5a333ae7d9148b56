// Package kv is the whole-document snapshot store behind the fallback
// ledger and the session store: one serialized document per fixed key,
// always read and written in full.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no document exists under a key.
var ErrNotFound = errors.New("document not found")

// Store reads and writes whole documents. There are no partial updates;
// callers do read-modify-write on the full value.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, doc []byte) error
	Delete(ctx context.Context, key string) error
}
