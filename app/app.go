// Package app has the mothmailer commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/MakeNowJust/heredoc"
	"github.com/alecthomas/kong"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/version"

	"github.com/mothmailer/mothmailer/inat"
	"github.com/mothmailer/mothmailer/selector"
	"github.com/mothmailer/mothmailer/store/jsonbin"
	"github.com/mothmailer/mothmailer/store/s3doc"
)

const Description = "Pick a moth photo that hasn't been sent before"

// CLI is the root command.
type CLI struct {
	Pick    PickCmd    `cmd:"" help:"Select a new moth and record it as sent"`
	Known   KnownCmd   `cmd:"" help:"Show the sent records"`
	Version VersionCmd `cmd:"" help:"Print version and build information"`
}

// Help is shown above the command list.
func (cli *CLI) Help() string {
	return heredoc.Doc(`
		Each run of "pick" samples random research grade moth observations
		from iNaturalist, skips the ones already sent and the ones without
		a common name, and prints the chosen record as JSON on stdout. The
		record is then appended to the sent log so later runs skip it.

		Runs must not overlap; the sent log is read and replaced as a
		whole document.
	`)
}

// Vars has the defaults interpolated into the flag definitions.
func Vars() kong.Vars {
	return kong.Vars{
		"jsonbin_url":      jsonbin.DefaultBaseURL,
		"object_name":      s3doc.DefaultKey,
		"inat_url":         inat.DefaultBaseURL,
		"taxon_id":         strconv.Itoa(inat.DefaultTaxonID),
		"without_taxon_id": strconv.Itoa(inat.DefaultWithoutTaxonID),
		"max_exclude_ids":  strconv.Itoa(inat.DefaultMaxExcludeIDs),
		"max_attempts":     strconv.Itoa(selector.DefaultMaxAttempts),
	}
}

type VersionCmd struct {
	out io.Writer
}

func (cmd *VersionCmd) Run(ctx context.Context) error {
	fmt.Fprintf(writer(cmd.out), "mothmailer %s\n", version.Version())
	return nil
}

// debugLogger replaces the context logger with a debug level one. The
// log goes to stderr so stdout only has the command output.
func debugLogger(ctx context.Context, debug bool) (context.Context, *slog.Logger) {
	if !debug {
		return ctx, logger.FromContext(ctx)
	}
	debugHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	log := slog.New(debugHandler)
	return logger.NewContext(ctx, log), log
}

func writer(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
