package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/prometheus/client_golang/prometheus"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/version"

	"github.com/mothmailer/mothmailer/inat"
	"github.com/mothmailer/mothmailer/record"
	"github.com/mothmailer/mothmailer/runid"
	"github.com/mothmailer/mothmailer/selector"
	"github.com/mothmailer/mothmailer/store"
	"github.com/mothmailer/mothmailer/store/backend"
)

type PickCmd struct {
	Store  StoreConfig  `embed:""`
	Source SourceConfig `embed:""`
	Select SelectConfig `embed:""`

	DryRun          bool   `name:"dry-run" help:"Select without committing; print the change to the sent log"`
	Debug           bool   `env:"MOTHMAILER_DEBUG" help:"Enable debug logging"`
	SourceRetries   int    `name:"source-retries" default:"3" env:"MOTHMAILER_SOURCE_RETRIES" help:"Times to rerun the selection when iNaturalist fails"`
	MetricsTextfile string `name:"metrics-textfile" env:"MOTHMAILER_METRICS_TEXTFILE" help:"Write metrics in the node_exporter textfile format to this path"`
	Environment     string `default:"prod" enum:"devel,test,prod" env:"DEPLOYMENT_MODE" help:"Deployment environment for traces (${enum})"`

	out     io.Writer
	backOff backoff.BackOff
}

// PickOutput is printed on stdout for the mail step.
type PickOutput struct {
	RunID      string        `json:"run_id"`
	Record     record.Record `json:"record"`
	Ordinal    int           `json:"ordinal"`
	SelectedAt time.Time     `json:"selected_at"`
	Attempts   int           `json:"attempts"`
	PoolSize   int           `json:"pool_size"`
	Favored    bool          `json:"favored"`

	Committed   bool   `json:"committed"`
	CommitError string `json:"commit_error,omitempty"`

	DryRun bool            `json:"dry_run,omitempty"`
	Patch  json.RawMessage `json:"patch,omitempty"`
}

func (cmd *PickCmd) Run(ctx context.Context) error {
	ctx, log := debugLogger(ctx, cmd.Debug)

	id, err := runid.New(time.Now())
	if err != nil {
		return err
	}
	log = log.With("run_id", id.String())
	ctx = logger.NewContext(ctx, log)

	depEnv, err := deploymentEnvironment(cmd.Environment)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "mothmailer starting", "version", version.Version(), "env", depEnv.String(), "store", cmd.Store.Driver, "dryRun", cmd.DryRun)

	shutdownTracing, err := initTracing(ctx, depEnv)
	if err != nil {
		log.WarnContext(ctx, "could not set up tracing", "err", err)
	}
	defer shutdownTracing(ctx)

	reg := prometheus.NewRegistry()
	version.RegisterMetric("mothmailer", reg)
	metrics := selector.NewMetrics(reg)
	if len(cmd.MetricsTextfile) > 0 {
		defer func() {
			werr := prometheus.WriteToTextfile(cmd.MetricsTextfile, reg)
			if werr != nil {
				log.WarnContext(ctx, "could not write metrics", "path", cmd.MetricsTextfile, "err", werr)
			}
		}()
	}

	doc, closer, err := backend.Open(ctx, cmd.Store.backendConfig())
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer closer.Close()
	st := store.New(doc)

	src := inat.New(cmd.Source.inatConfig())
	sl := selector.New(src, st, cmd.Select.selectorConfig(), metrics)

	bo := cmd.backOff
	if bo == nil {
		bo = newBackOff()
	}
	sel, err := selectWithRetry(ctx, sl, cmd.SourceRetries, bo)
	if err != nil {
		return err
	}

	out := PickOutput{
		RunID:      id.String(),
		Record:     sel.Record,
		Ordinal:    sel.Ordinal,
		SelectedAt: sel.SelectedAt,
		Attempts:   sel.Attempts,
		PoolSize:   sel.PoolSize,
		Favored:    sel.Favored,
	}

	switch {
	case cmd.DryRun && sel.StoreErr != nil:
		out.DryRun = true
		out.CommitError = fmt.Errorf("%w: %w", selector.ErrUnreadableStore, sel.StoreErr).Error()
	case cmd.DryRun:
		before, after, err := st.Preview(ctx, selector.Stamp(sel))
		if err != nil {
			return err
		}
		patch, err := jsonpatch.CreateMergePatch(before, after)
		if err != nil {
			return fmt.Errorf("merge patch: %w", err)
		}
		out.DryRun = true
		out.Patch = patch
	default:
		res := selector.Commit(ctx, st, sel, metrics)
		out.Record = res.Record
		out.Committed = res.Committed
		if res.Err != nil {
			out.CommitError = res.Err.Error()
		}
	}

	enc := json.NewEncoder(writer(cmd.out))
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
