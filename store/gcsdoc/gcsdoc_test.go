package gcsdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mothmailer/mothmailer/record"
	"github.com/mothmailer/mothmailer/store"
)

type fakeObject struct {
	body     []byte
	exists   bool
	readErr  error
	writeErr error
	closeErr error
	closed   int
}

func (f *fakeObject) NewReader(_ context.Context) (io.ReadCloser, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if !f.exists {
		return nil, storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(f.body)), nil
}

func (f *fakeObject) NewWriter(_ context.Context) io.WriteCloser {
	return &fakeWriter{obj: f}
}

// fakeWriter only makes the object visible on Close, like a GCS upload
type fakeWriter struct {
	obj *fakeObject
	buf bytes.Buffer
}

func (w *fakeWriter) Write(b []byte) (int, error) {
	if w.obj.writeErr != nil {
		return 0, w.obj.writeErr
	}
	return w.buf.Write(b)
}

func (w *fakeWriter) Close() error {
	w.obj.closed++
	if w.obj.writeErr != nil {
		return w.obj.writeErr
	}
	if w.obj.closeErr != nil {
		return w.obj.closeErr
	}
	w.obj.body = w.buf.Bytes()
	w.obj.exists = true
	return nil
}

func TestObject(t *testing.T) {
	ctx := context.Background()
	fake := &fakeObject{}
	obj := newObject(fake, "moths", DefaultObject)
	assert.Equal(t, "gs://moths/mothmailer/sent.json", obj.Name())
	assert.NoError(t, obj.Close())

	_, err := obj.Read(ctx)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	st := store.New(obj)
	assert.Equal(t, 1, st.Count(ctx))
	require.NoError(t, st.Append(ctx, record.Record{ID: "55"}))
	require.NoError(t, st.Append(ctx, record.Record{ID: "56"}))
	assert.Equal(t, record.NewIDSet("55", "56"), st.KnownIDs(ctx))
	assert.Equal(t, 3, st.Count(ctx))

	fake.readErr = errors.New("permission denied")
	_, err = obj.Read(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}

func TestObjectReplaceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("write", func(t *testing.T) {
		fake := &fakeObject{writeErr: errors.New("connection reset")}
		err := newObject(fake, "moths", "sent.json").Replace(ctx, []byte(`{"records":[]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Equal(t, 1, fake.closed, "the writer is closed after a failed write")
		assert.False(t, fake.exists)
	})

	t.Run("close", func(t *testing.T) {
		fake := &fakeObject{closeErr: errors.New("precondition failed")}
		err := newObject(fake, "moths", "sent.json").Replace(ctx, []byte(`{"records":[]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "precondition failed")
		assert.False(t, fake.exists)
	})
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

// TestObjectEmulator runs against fake-gcs-server or the official
// emulator when STORAGE_EMULATOR_HOST and TEST_GCS_BUCKET are set.
func TestObjectEmulator(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if os.Getenv("STORAGE_EMULATOR_HOST") == "" || bucket == "" {
		t.Skip("STORAGE_EMULATOR_HOST or TEST_GCS_BUCKET not set, skipping integration test")
	}

	ctx := context.Background()
	obj, err := New(ctx, Config{
		Bucket: bucket,
		Object: fmt.Sprintf("test/%d.json", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	defer obj.Close()

	st := store.New(obj)
	assert.Equal(t, 1, st.Count(ctx))

	require.NoError(t, st.Append(ctx, record.Record{ID: "55"}))
	assert.Equal(t, record.NewIDSet("55"), st.KnownIDs(ctx))
}
