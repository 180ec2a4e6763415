package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/host-pulse/cache"
	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/display/tui"
	"gitlab.com/tinyland/lab/host-pulse/sampler"
)

// runDashboard samples in-process and drives the dashboard until the user
// quits or ctx is cancelled.
func runDashboard(ctx context.Context, smp *sampler.Sampler, logger *slog.Logger) error {
	if err := smp.Prime(ctx); err != nil {
		return err
	}

	toggle := &sampler.Toggle{}
	updates := make(chan *collectors.Snapshot, sampler.DefaultUpdateBufferSize)
	runner := sampler.NewRunner(smp, toggle, updates, sampler.RunnerOptions{Logger: logger})

	runner.Start(ctx)
	defer runner.Stop()

	return runProgram(ctx, tui.Options{
		Updates: updates,
		Toggle:  toggle,
		Trigger: runner,
	})
}

// attachDashboard renders the snapshots a running daemon publishes. The
// process-list toggle is unavailable because the daemon owns sampling.
func attachDashboard(ctx context.Context, store *cache.Store) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	return runProgram(ctx, tui.Options{
		Updates: cache.Follow[collectors.Snapshot](ctx, store, cache.KeySnapshot),
	})
}

func runProgram(ctx context.Context, opts tui.Options) error {
	zones := zone.New()
	defer zones.Close()
	opts.Zones = zones

	p := tea.NewProgram(tui.NewModel(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
