package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mothmailer/mothmailer/inat"
	"github.com/mothmailer/mothmailer/record"
)

// DefaultMaxAttempts bounds the number of pages sampled per run.
const DefaultMaxAttempts = 20

// ErrExhausted is returned when the attempt budget is spent without a
// single novel, nameable candidate, or when the first page is empty.
var ErrExhausted = errors.New("no candidates found")

// SourceCallError wraps an error from the candidate source. The
// selector does not retry these; the caller may run Select again.
type SourceCallError struct {
	Attempt int
	Err     error
}

func (e *SourceCallError) Error() string {
	return fmt.Sprintf("candidate source failed on attempt %d: %s", e.Attempt, e.Err)
}

func (e *SourceCallError) Unwrap() error {
	return e.Err
}

type Config struct {
	MaxAttempts      int
	MinFavoriteCount int

	// StopWhen is checked after every attempt; defaults to FavoredFound
	StopWhen StopFunc

	// Rand and Now are for tests
	Rand *rand.Rand
	Now  func() time.Time
}

// Selector picks one novel record per call to Select.
type Selector struct {
	source  Source
	store   KnownStore
	cfg     Config
	metrics *Metrics
}

// New creates a selector. metrics may be nil.
func New(source Source, store KnownStore, cfg Config, metrics *Metrics) *Selector {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.StopWhen == nil {
		cfg.StopWhen = FavoredFound
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Selector{source: source, store: store, cfg: cfg, metrics: metrics}
}

// Select runs the sampling loop and returns the chosen record with its
// ordinal. The record is not committed.
func (sl *Selector) Select(ctx context.Context) (*record.Selection, error) {
	ctx, span := tracing.Start(ctx, "selector.Select")
	defer span.End()

	log := logger.FromContext(ctx)

	snap := sl.store.LoadKnown(ctx)
	known := snap.KnownIDs()
	log.DebugContext(ctx, "starting selection", "known", known.Len(), "maxAttempts", sl.cfg.MaxAttempts, "degraded", snap.Degraded != nil)

	pool := newPool()
	opts := inat.SampleOptions{MinFavoriteCount: sl.cfg.MinFavoriteCount}

	attempts := 0
	for attempts < sl.cfg.MaxAttempts {
		attempts++
		sl.metrics.attempt()

		page, err := sl.source.Sample(ctx, known, opts)
		if err != nil {
			span.RecordError(err)
			sl.metrics.run(resultSourceError)
			log.WarnContext(ctx, "candidate source failed", "attempt", attempts, "err", err)
			return nil, &SourceCallError{Attempt: attempts, Err: err}
		}

		if attempts == 1 && len(page) == 0 {
			sl.metrics.run(resultExhausted)
			return nil, fmt.Errorf("%w: first page was empty", ErrExhausted)
		}

		outcomes := pool.add(page, known)
		sl.metrics.candidates(outcomes)

		log.DebugContext(ctx, "sampled page",
			"attempt", attempts,
			"page", len(page),
			"accepted", outcomes[outcomeAccepted],
			"known", outcomes[outcomeKnown],
			"unnamed", outcomes[outcomeUnnamed],
			"noPhoto", outcomes[outcomeNoPhoto],
			"duplicate", outcomes[outcomeDuplicate],
			"pool", pool.Len(),
			"favored", pool.FavoredLen(),
		)

		if sl.cfg.StopWhen(pool) {
			break
		}
	}

	span.SetAttributes(
		attribute.Int("attempts", attempts),
		attribute.Int("pool", pool.Len()),
		attribute.Int("favored", pool.FavoredLen()),
	)
	sl.metrics.poolSize(pool.Len())

	if pool.Len() == 0 {
		sl.metrics.run(resultExhausted)
		log.WarnContext(ctx, "no novel candidates", "attempts", attempts)
		return nil, fmt.Errorf("%w after %d attempts", ErrExhausted, attempts)
	}

	chosen, favored := pool.pick(sl.intn)
	if d, ok := sl.source.(Decorator); ok {
		d.Decorate(ctx, &chosen)
	}

	sel := &record.Selection{
		Record:     chosen,
		Ordinal:    snap.Count(),
		SelectedAt: sl.cfg.Now().UTC(),
		Attempts:   attempts,
		PoolSize:   pool.Len(),
		Favored:    favored,
		StoreErr:   snap.Degraded,
	}

	if favored {
		sl.metrics.run(resultFavored)
	} else {
		sl.metrics.run(resultPool)
	}

	log.InfoContext(ctx, "selected record",
		"id", chosen.ID,
		"name", chosen.DisplayName(),
		"favorites", chosen.FavoriteCount,
		"ordinal", sel.Ordinal,
		"attempts", attempts,
		"pool", pool.Len(),
	)

	return sel, nil
}

func (sl *Selector) intn(n int) int {
	if sl.cfg.Rand != nil {
		return sl.cfg.Rand.IntN(n)
	}
	return rand.IntN(n)
}
