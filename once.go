package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/display/text"
	"gitlab.com/tinyland/lab/host-pulse/sampler"
)

// Output formats accepted by -format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// maxSettle caps the pause between priming and sampling in one-shot mode.
const maxSettle = time.Second

// sampleOnce primes the sampler, waits for rate-based channels to accumulate
// a measurable delta, then runs a single cycle.
func sampleOnce(ctx context.Context, smp *sampler.Sampler, expanded bool) (*collectors.Snapshot, error) {
	if err := smp.Prime(ctx); err != nil {
		return nil, err
	}

	settle := min(smp.Options().Interval, maxSettle)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(settle):
	}

	return smp.Tick(ctx, sampler.ViewState{ExpandProcesses: expanded})
}

// writeSnapshot encodes snap to w in the requested format.
func writeSnapshot(w io.Writer, snap *collectors.Snapshot, format string, opts text.Options) error {
	switch format {
	case formatText, "":
		_, err := io.WriteString(w, text.Report(snap, opts))
		return err
	case formatJSON:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}
