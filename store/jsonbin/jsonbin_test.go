package jsonbin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mothmailer/mothmailer/record"
	"github.com/mothmailer/mothmailer/store"
)

type fakeBin struct {
	body   []byte
	status int
	puts   int
}

func (f *fakeBin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Master-Key") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid X-Master-Key provided"}`))
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	switch {
	case r.Method == "GET" && r.URL.Path == "/b/abc123/latest":
		if r.Header.Get("X-Bin-Meta") != "false" {
			w.Write([]byte(`{"record":` + string(f.body) + `,"metadata":{}}`))
			return
		}
		if f.body == nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Bin not found"}`))
			return
		}
		w.Write(f.body)
	case r.Method == "PUT" && r.URL.Path == "/b/abc123":
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(r.Body)
		f.body = b
		f.puts++
		w.Write([]byte(`{"record":{},"metadata":{"parentId":"abc123"}}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestBin(t *testing.T, fb *fakeBin, key string) *Bin {
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	bin, err := New(Config{BaseURL: srv.URL + "/", BinID: "abc123", MasterKey: key, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return bin
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{MasterKey: "x"})
	assert.Error(t, err)
	_, err = New(Config{BinID: "x"})
	assert.Error(t, err)
}

func TestReadReplace(t *testing.T) {
	ctx := context.Background()
	fb := &fakeBin{body: []byte(`[101, 102]`)}
	bin := newTestBin(t, fb, "secret")
	assert.Equal(t, "jsonbin:abc123", bin.Name())

	st := store.New(bin)
	assert.Equal(t, record.NewIDSet("101", "102"), st.KnownIDs(ctx))

	require.NoError(t, st.Append(ctx, record.Record{ID: "103", SequenceNumber: 3}))
	assert.Equal(t, 1, fb.puts)
	assert.JSONEq(t, `{"records":[{"id":101},{"id":102},{"id":103,"sequence_number":3}]}`, string(fb.body))
}

func TestReadNotFound(t *testing.T) {
	bin := newTestBin(t, &fakeBin{}, "secret")
	_, err := bin.Read(context.Background())
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	bin := newTestBin(t, &fakeBin{body: []byte(`[]`)}, "wrong")
	_, err := bin.Read(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	fb := &fakeBin{status: http.StatusServiceUnavailable}
	bin = newTestBin(t, fb, "secret")
	require.Error(t, bin.Replace(ctx, []byte(`{}`)))

	snap := store.New(bin).LoadKnown(ctx)
	assert.Error(t, snap.Degraded)
}
