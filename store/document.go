package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Document when nothing has been stored
// yet. The store treats it as an empty log.
var ErrNotFound = errors.New("document not found")

// Document is a named JSON document with whole-document semantics.
type Document interface {
	// Name identifies the document in logs
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Replace(ctx context.Context, b []byte) error
}
