package selector

import (
	"context"
	"errors"
	"fmt"

	"go.ntppool.org/common/logger"

	"github.com/mothmailer/mothmailer/record"
)

// ErrUnreadableStore is returned in the commit result when the
// selection was made without a readable store; its ordinal could
// repeat an existing sequence number.
var ErrUnreadableStore = errors.New("store was unreadable at selection")

// Commit stamps the selection onto its record and appends it to the
// store. It never fails the run: an append error is logged and
// returned in the result. A record that was already delivered stays
// delivered even if it could not be committed.
func Commit(ctx context.Context, st Appender, sel *record.Selection, metrics *Metrics) CommitResult {
	log := logger.FromContext(ctx)

	r := Stamp(sel)

	if sel.StoreErr != nil {
		metrics.commit(false)
		err := fmt.Errorf("%w: %w", ErrUnreadableStore, sel.StoreErr)
		log.WarnContext(ctx, "not committing, the store was unreadable when the record was selected", "id", r.ID, "err", sel.StoreErr)
		return CommitResult{Record: r, Err: err}
	}

	err := st.Append(ctx, r)
	if err != nil {
		metrics.commit(false)
		log.WarnContext(ctx, "commit failed, record may be selected again", "id", r.ID, "err", err)
		return CommitResult{Record: r, Err: err}
	}

	metrics.commit(true)
	log.DebugContext(ctx, "committed record", "id", r.ID, "sequence", r.SequenceNumber)
	return CommitResult{Committed: true, Record: r}
}

// Stamp returns the record as it is committed: with the selection
// time and the ordinal as its sequence number.
func Stamp(sel *record.Selection) record.Record {
	r := sel.Record
	selectedAt := sel.SelectedAt
	r.SelectedAt = &selectedAt
	r.SequenceNumber = sel.Ordinal
	return r
}
