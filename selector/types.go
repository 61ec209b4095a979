package selector

import (
	"context"

	"github.com/mothmailer/mothmailer/inat"
	"github.com/mothmailer/mothmailer/record"
	"github.com/mothmailer/mothmailer/store"
)

// Source returns a random page of candidate records per call.
type Source interface {
	Sample(ctx context.Context, exclude record.IDSet, opts inat.SampleOptions) ([]record.Record, error)
}

// Decorator fills in optional details of the picked record.
type Decorator interface {
	Decorate(ctx context.Context, r *record.Record)
}

// KnownStore is the read side of the record store. The known ids
// and the ordinal come from the same snapshot.
type KnownStore interface {
	LoadKnown(ctx context.Context) store.Snapshot
}

// Appender is the write side of the record store.
type Appender interface {
	Append(ctx context.Context, r record.Record) error
}

// candidateOutcome is why a sampled record was or wasn't pooled
type candidateOutcome string

const (
	outcomeAccepted  candidateOutcome = "accepted"
	outcomeKnown     candidateOutcome = "known"     // already committed
	outcomeUnnamed   candidateOutcome = "unnamed"   // no display name
	outcomeNoPhoto   candidateOutcome = "no_photo"
	outcomeDuplicate candidateOutcome = "duplicate" // seen on an earlier page this run
)

// CommitResult reports the outcome of the commit step. A failed commit
// does not invalidate the selection.
type CommitResult struct {
	Committed bool
	Record    record.Record
	Err       error
}
