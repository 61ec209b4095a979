package filedoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mothmailer/mothmailer/record"
	"github.com/mothmailer/mothmailer/store"
)

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "sent.json")

	f, err := New(path)
	require.NoError(t, err)

	_, err = f.Read(ctx)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	st := store.New(f)
	assert.Equal(t, 1, st.Count(ctx))

	require.NoError(t, st.Append(ctx, record.Record{ID: "42", CommonName: "Cecropia Moth"}))
	require.NoError(t, st.Append(ctx, record.Record{ID: "43"}))

	assert.Equal(t, record.NewIDSet("42", "43"), st.KnownIDs(ctx))
	assert.Equal(t, 3, st.Count(ctx))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}

func TestFileLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")
	require.NoError(t, os.WriteFile(path, []byte(`["7", 8]`), 0o600))

	f, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, record.NewIDSet("7", "8"), store.New(f).KnownIDs(context.Background()))
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
