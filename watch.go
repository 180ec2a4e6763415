package main

import (
	"context"
	"fmt"
	"io"

	"gitlab.com/tinyland/lab/host-pulse/cache"
	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/display/text"
)

// followSnapshots prints one line per snapshot the daemon publishes until
// ctx is done.
func followSnapshots(ctx context.Context, store *cache.Store, w io.Writer) error {
	for snap := range cache.Follow[collectors.Snapshot](ctx, store, cache.KeySnapshot) {
		if _, err := fmt.Fprintln(w, text.Line(snap)); err != nil {
			return err
		}
	}
	return nil
}
