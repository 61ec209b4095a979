// Package testutil has fakes and helpers shared by the package tests.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"go.ntppool.org/common/logger"

	"github.com/mothmailer/mothmailer/inat"
	"github.com/mothmailer/mothmailer/record"
)

// FakeSource returns scripted pages. Calls past the end of Pages
// repeat the last page.
type FakeSource struct {
	lock sync.Mutex

	Pages [][]record.Record
	// Errs maps a 1-based call number to the error it returns
	Errs map[int]error

	Calls    int
	Excludes []record.IDSet
	Options  []inat.SampleOptions

	// Families, when set, makes the source a decorator
	Families map[int64]string
}

func (f *FakeSource) Sample(_ context.Context, exclude record.IDSet, opts inat.SampleOptions) ([]record.Record, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Calls++
	f.Excludes = append(f.Excludes, exclude)
	f.Options = append(f.Options, opts)

	if err, ok := f.Errs[f.Calls]; ok {
		return nil, err
	}
	if len(f.Pages) == 0 {
		return nil, nil
	}
	i := f.Calls - 1
	if i >= len(f.Pages) {
		i = len(f.Pages) - 1
	}
	return append([]record.Record(nil), f.Pages[i]...), nil
}

// DecoratingSource is a FakeSource that also fills in families.
type DecoratingSource struct {
	*FakeSource
}

func (d DecoratingSource) Decorate(_ context.Context, r *record.Record) {
	if fam, ok := d.Families[r.TaxonID]; ok {
		r.Family = fam
	}
}

// Rec builds a record with a display name.
func Rec(id string, favorites int) record.Record {
	return record.Record{
		ID:            record.ID(id),
		CommonName:    "Moth " + id,
		PhotoURL:      "https://static.inaturalist.org/photos/" + id + "/large.jpg",
		FavoriteCount: favorites,
	}
}

// NoPhoto builds a named record without a photo.
func NoPhoto(id string) record.Record {
	r := Rec(id, 0)
	r.PhotoURL = ""
	return r
}

// Unnamed builds a record without a display name.
func Unnamed(id string) record.Record {
	return record.Record{
		ID:             record.ID(id),
		ScientificName: "Lepidoptera sp.",
		PhotoURL:       "https://static.inaturalist.org/photos/" + id + "/large.jpg",
	}
}

// Context returns a context carrying a debug level test logger.
func Context(t *testing.T) context.Context {
	t.Helper()
	return logger.NewContext(context.Background(), NewTestLogger(t))
}

// NewTestLogger creates a debug level logger writing to stdout
func NewTestLogger(t *testing.T) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler).With("test", t.Name())
}

// TimeController allows controlling time in tests
type TimeController struct {
	frozen  bool
	current time.Time
	offset  time.Duration
}

// NewTimeController creates a new time controller
func NewTimeController() *TimeController {
	return &TimeController{
		frozen:  false,
		current: time.Now(),
		offset:  0,
	}
}

// SetTime sets the current time
func (tc *TimeController) SetTime(t time.Time) {
	tc.current = t
	tc.offset = -time.Until(t)
	tc.frozen = true
}

// Advance advances time by the given duration
func (tc *TimeController) Advance(d time.Duration) {
	if tc.frozen {
		tc.current = tc.current.Add(d)
	} else {
		tc.offset += d
	}
}

// Now returns the current controlled time
func (tc *TimeController) Now() time.Time {
	if tc.frozen {
		return tc.current
	}
	return time.Now().Add(tc.offset)
}
