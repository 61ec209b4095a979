package store

import (
	"context"
	"errors"
	"fmt"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"

	"github.com/mothmailer/mothmailer/record"
)

// Store is the log of committed records.
type Store struct {
	doc Document
}

func New(doc Document) *Store {
	return &Store{doc: doc}
}

// Snapshot is the log as read at one point in time. Degraded is set
// when the document could not be read or parsed; Entries is then
// empty and deduplication is effectively off for the run.
type Snapshot struct {
	Entries  []Entry
	Degraded error
}

// KnownIDs returns the identifiers in the snapshot
func (s Snapshot) KnownIDs() record.IDSet {
	ids := make(record.IDSet, len(s.Entries))
	for _, e := range s.Entries {
		ids.Add(e.ID)
	}
	return ids
}

// Count is the ordinal the next commit should use.
func (s Snapshot) Count() int {
	return len(s.Entries) + 1
}

// LoadKnown reads the document. Read and parse errors are logged and
// reported in Snapshot.Degraded, never returned.
func (st *Store) LoadKnown(ctx context.Context) Snapshot {
	ctx, span := tracing.Start(ctx, "store.LoadKnown")
	defer span.End()

	log := logger.FromContext(ctx).With("document", st.doc.Name())

	entries, err := st.read(ctx)
	if err != nil {
		span.RecordError(err)
		log.WarnContext(ctx, "could not load sent records, continuing without deduplication", "err", err)
		return Snapshot{Degraded: err}
	}

	log.DebugContext(ctx, "loaded sent records", "count", len(entries))
	return Snapshot{Entries: entries}
}

// KnownIDs returns the set of ids already committed.
func (st *Store) KnownIDs(ctx context.Context) record.IDSet {
	return st.LoadKnown(ctx).KnownIDs()
}

// Count returns the number of entries in the log plus one.
func (st *Store) Count(ctx context.Context) int {
	return st.LoadKnown(ctx).Count()
}

// Append adds the record to the log and writes the whole document
// back. The document is not replaced when it could not be read, so a
// transient read error can't wipe the log.
func (st *Store) Append(ctx context.Context, r record.Record) error {
	ctx, span := tracing.Start(ctx, "store.Append")
	defer span.End()

	log := logger.FromContext(ctx).With("document", st.doc.Name(), "id", r.ID)

	_, after, err := st.prepare(ctx, r)
	if err != nil {
		span.RecordError(err)
		log.ErrorContext(ctx, "could not prepare store update", "err", err)
		return err
	}

	err = st.doc.Replace(ctx, after)
	if err != nil {
		span.RecordError(err)
		log.ErrorContext(ctx, "could not save sent record", "err", err)
		return fmt.Errorf("replace %s: %w", st.doc.Name(), err)
	}

	log.InfoContext(ctx, "saved sent record", "sequence", r.SequenceNumber)
	return nil
}

// Preview returns the current document and the document Append would
// write, without writing anything.
func (st *Store) Preview(ctx context.Context, r record.Record) ([]byte, []byte, error) {
	return st.prepare(ctx, r)
}

func (st *Store) prepare(ctx context.Context, r record.Record) ([]byte, []byte, error) {
	if r.ID == "" {
		return nil, nil, errors.New("record has no id")
	}

	raw, err := st.doc.Read(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, fmt.Errorf("read %s: %w", st.doc.Name(), err)
	}
	entries, err := decodeDocument(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", st.doc.Name(), err)
	}

	before, err := encodeDocument(coerce(entries))
	if err != nil {
		return nil, nil, err
	}
	after, err := encodeDocument(append(coerce(entries), r))
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func (st *Store) read(ctx context.Context) ([]Entry, error) {
	raw, err := st.doc.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", st.doc.Name(), err)
	}
	entries, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", st.doc.Name(), err)
	}
	return entries, nil
}
