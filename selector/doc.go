// Package selector implements the selection-and-deduplication engine.
//
// The selector draws random pages of observations from a candidate
// source, filters out records that were already sent, have no
// display name or have no photo, and accumulates the survivors in a pool across
// attempts. Once the pool holds at least one favorited record (or the
// attempt budget is spent) it picks one record at random, preferring
// the favorited subset.
//
// # Selection Algorithm
//
//  1. Read one snapshot of the store; the known-id set and the
//     ordinal both come from it.
//  2. For up to MaxAttempts attempts, sample a page and add novel,
//     nameable records to the pool.
//  3. Stop early when StopWhen returns true (by default as soon as the
//     pool holds a favorited record).
//  4. Fail with ErrExhausted if the pool is empty, otherwise pick
//     uniformly from the favorited records, or from the whole pool if
//     none are favorited.
//  5. Capture the ordinal (snapshot size + 1). A selection made from
//     an unreadable snapshot carries StoreErr and Commit skips it.
//
// Pages are accumulated because the supply of novel records on a page
// shrinks as the store grows; a mostly redundant page still adds to
// the union.
//
// # Failures
//
// Errors from the candidate source are returned immediately wrapped in
// a SourceCallError; they are not retried inside the selector. An
// empty pool after the budget is spent, or an empty first page, is
// ErrExhausted. Store read failures are soft: the store logs them and
// reports an empty known-id set. Commit failures are soft too: Commit
// logs and returns them in CommitResult.
//
// # Usage
//
//	sl := selector.New(source, st, selector.Config{}, metrics)
//	sel, err := sl.Select(ctx)
//	if err != nil {
//	    return err
//	}
//	res := selector.Commit(ctx, st, sel, metrics)
package selector
