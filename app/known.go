package app

import (
	"context"
	"fmt"
	"io"

	"github.com/mothmailer/mothmailer/store"
	"github.com/mothmailer/mothmailer/store/backend"
)

type KnownCmd struct {
	Store StoreConfig `embed:""`

	IDs   bool `name:"ids" help:"List the sent ids"`
	Debug bool `env:"MOTHMAILER_DEBUG" help:"Enable debug logging"`

	out io.Writer
}

func (cmd *KnownCmd) Run(ctx context.Context) error {
	ctx, _ = debugLogger(ctx, cmd.Debug)

	doc, closer, err := backend.Open(ctx, cmd.Store.backendConfig())
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer closer.Close()

	snap := store.New(doc).LoadKnown(ctx)
	if snap.Degraded != nil {
		return snap.Degraded
	}

	w := writer(cmd.out)
	legacy := 0
	for _, e := range snap.Entries {
		if e.Legacy() {
			legacy++
		}
	}

	fmt.Fprintf(w, "document:     %s\n", doc.Name())
	fmt.Fprintf(w, "sent:         %d\n", len(snap.Entries))
	if legacy > 0 {
		fmt.Fprintf(w, "legacy ids:   %d\n", legacy)
	}
	fmt.Fprintf(w, "next ordinal: %d\n", snap.Count())

	if cmd.IDs {
		for _, id := range snap.KnownIDs().Sorted() {
			fmt.Fprintln(w, id)
		}
	}
	return nil
}
