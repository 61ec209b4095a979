package store

import (
	"context"
	"sync"
)

// MemoryDocument keeps the document in memory. It's used by tests and
// by the "memory" driver for trying the selector without a real store.
type MemoryDocument struct {
	lock sync.Mutex
	body []byte

	ReadErr    error
	ReplaceErr error
	// ReadErrs maps a 1-based read number to the error it returns
	ReadErrs map[int]error

	Reads    int
	Replaces int
}

func NewMemoryDocument(body string) *MemoryDocument {
	d := &MemoryDocument{}
	if body != "" {
		d.body = []byte(body)
	}
	return d
}

func (d *MemoryDocument) Name() string {
	return "memory"
}

func (d *MemoryDocument) Read(_ context.Context) ([]byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.Reads++
	if err, ok := d.ReadErrs[d.Reads]; ok {
		return nil, err
	}
	if d.ReadErr != nil {
		return nil, d.ReadErr
	}
	if d.body == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), d.body...), nil
}

func (d *MemoryDocument) Replace(_ context.Context, b []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.Replaces++
	if d.ReplaceErr != nil {
		return d.ReplaceErr
	}
	d.body = append([]byte(nil), b...)
	return nil
}

// Body returns the current document
func (d *MemoryDocument) Body() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]byte(nil), d.body...)
}
