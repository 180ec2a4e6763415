// host-pulse is a real-time host metrics sampler. It samples CPU, memory,
// disk and network usage plus the top processes on a fixed cadence and shows
// them as a live terminal dashboard, a one-shot report or a PNG chart.
//
// Usage:
//
//	host-pulse [flags]
//
// Flags:
//
//	-config string    Path to configuration file (default: ~/.config/host-pulse/config.toml)
//	-once             Take one sample, print it and exit
//	-format string    Output format for -once: text, json or yaml (default text)
//	-expand           Show the full process list with -once
//	-daemon           Sample in the background and publish to the cache
//	-watch            Print one line per snapshot published by the daemon
//	-attach           Open the dashboard on the daemon's snapshots
//	-png string       Render the history to a PNG chart and exit
//	-inline           Draw the history chart in the terminal and exit
//	-protocol string  Image protocol for -inline: auto, kitty, iterm2 or unicode
//	-health           Check daemon health status
//	-json             Output health check as JSON (with -health)
//	-demo             Use the synthetic mock source
//	-print-config     Print the effective configuration as TOML and exit
//	-man              Print the man page in roff format
//	-version          Print version and exit
//
// With no mode flag the interactive dashboard is started.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/tinyland/lab/host-pulse/cache"
	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/config"
	"gitlab.com/tinyland/lab/host-pulse/display/chart"
	"gitlab.com/tinyland/lab/host-pulse/display/color"
	"gitlab.com/tinyland/lab/host-pulse/display/layout"
	"gitlab.com/tinyland/lab/host-pulse/display/render"
	"gitlab.com/tinyland/lab/host-pulse/display/text"
	"gitlab.com/tinyland/lab/host-pulse/docs/manpage"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes the selected mode and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("host-pulse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath  = fs.String("config", "", "Path to configuration file (default: ~/.config/host-pulse/config.toml)")
		runOnce     = fs.Bool("once", false, "Take one sample, print it and exit")
		outFormat   = fs.String("format", formatText, "Output format for -once (text|json|yaml)")
		expand      = fs.Bool("expand", false, "Show the full process list with -once")
		runDaemon   = fs.Bool("daemon", false, "Sample in the background and publish to the cache")
		runWatch    = fs.Bool("watch", false, "Print one line per snapshot published by the daemon")
		runAttach   = fs.Bool("attach", false, "Open the dashboard on the daemon's snapshots")
		pngPath     = fs.String("png", "", "Render the history to a PNG chart and exit")
		inline      = fs.Bool("inline", false, "Draw the history chart in the terminal and exit")
		protocol    = fs.String("protocol", "auto", "Image protocol for -inline (auto|kitty|iterm2|unicode)")
		runHealth   = fs.Bool("health", false, "Check daemon health status")
		healthJSON  = fs.Bool("json", false, "Output health check as JSON (with -health)")
		demo        = fs.Bool("demo", false, "Use the synthetic mock source")
		printConfig = fs.Bool("print-config", false, "Print the effective configuration as TOML and exit")
		showMan     = fs.Bool("man", false, "Print the man page in roff format")
		showVersion = fs.Bool("version", false, "Print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// ---------------------------------------------------------------
	// Commands that don't require config
	// ---------------------------------------------------------------

	if *showVersion {
		fmt.Fprintf(stdout, "host-pulse %s (%s) built %s\n", version, commit, date)
		return 0
	}

	if *showMan {
		fmt.Fprint(stdout, manpage.Generate(version, commit, date))
		return 0
	}

	// ---------------------------------------------------------------
	// Load configuration (required for remaining modes)
	// ---------------------------------------------------------------

	var cfg *config.Config
	var cfgErr error
	if *configPath != "" {
		cfg, cfgErr = config.LoadFromFile(*configPath)
	} else {
		cfg, cfgErr = config.Load()
	}
	if cfgErr != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", cfgErr)
		return 1
	}
	if *demo {
		cfg.Sampler.Source = config.SourceMock
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 1
	}

	if *printConfig {
		if err := config.Encode(stdout, cfg); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		return 0
	}

	// ---------------------------------------------------------------
	// Cache readers
	// ---------------------------------------------------------------

	interactive := !(*runOnce || *runDaemon || *runWatch || *runHealth || *inline || *pngPath != "")
	if !interactive {
		applyColor(stdout)
	}

	logFallback := stderr
	if interactive {
		logFallback = io.Discard
	}
	logger, closeLog, err := newLogger(cfg.General, logFallback)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	store, err := cache.NewStore(cfg.General.CacheDir, logger)
	if err != nil {
		fmt.Fprintf(stderr, "cache: %v\n", err)
		return 1
	}

	if *runHealth {
		return checkHealth(store, cfg.Sampler.Interval(), *healthJSON, stdout, stderr, time.Now())
	}

	// ---------------------------------------------------------------
	// Context with signal handling
	// ---------------------------------------------------------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *runWatch {
		if err := followSnapshots(ctx, store, stdout); err != nil {
			fmt.Fprintf(stderr, "watch: %v\n", err)
			return 1
		}
		return 0
	}

	if *runAttach {
		if err := attachDashboard(ctx, store); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		return 0
	}

	// ---------------------------------------------------------------
	// Sampling modes
	// ---------------------------------------------------------------

	tuneMaxProcs(logger)

	src, err := newSource(cfg, newRegistry(logger), logger)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	smp := newSampler(cfg, src, logger)

	sample := func() (*collectors.Snapshot, error) { return sampleOnce(ctx, smp, false) }
	chartOpts := chart.Options{Width: cfg.Display.ChartWidth, Height: cfg.Display.ChartHeight}

	switch {
	case *pngPath != "":
		snap, err := chartSnapshot(ctx, store, cfg, sample)
		if err == nil {
			err = chart.Save(*pngPath, snap, chartOpts)
		}
		if err != nil {
			fmt.Fprintf(stderr, "chart: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "wrote %s\n", *pngPath)
		return 0

	case *inline:
		p, ok := render.ParseProtocol(*protocol)
		if !ok {
			fmt.Fprintf(stderr, "unknown protocol %q (want auto, kitty, iterm2 or unicode)\n", *protocol)
			return 1
		}
		if err := drawInline(ctx, stdout, store, cfg, chartOpts, p, sample); err != nil {
			fmt.Fprintf(stderr, "chart: %v\n", err)
			return 1
		}
		return 0

	case *runOnce:
		snap, err := sampleOnce(ctx, smp, *expand)
		if err != nil {
			fmt.Fprintf(stderr, "sample: %v\n", err)
			return 1
		}
		width, _ := layout.DetectTerminalSize()
		opts := text.Options{Width: width, SparklineWidth: cfg.Display.SparklineWidth}
		if err := writeSnapshot(stdout, snap, *outFormat, opts); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		return 0

	case *runDaemon:
		d := newDaemon(cfg.General.CacheDir, store, smp, logger)
		fmt.Fprintf(stderr, "starting host-pulse daemon v%s\n", version)
		if err := d.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "daemon error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := runDashboard(ctx, smp, logger); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return 0
}

// chartSnapshot prefers the daemon's latest snapshot, which carries a full
// history, and falls back to sampling once.
func chartSnapshot(ctx context.Context, store *cache.Store, cfg *config.Config, sample func() (*collectors.Snapshot, error)) (*collectors.Snapshot, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	snap, fresh, err := cache.GetTyped[collectors.Snapshot](store, cache.KeySnapshot, 2*cfg.Sampler.Interval())
	if err == nil && snap != nil && fresh {
		return snap, nil
	}
	return sample()
}

// drawInline renders the history chart and writes it to w as terminal
// graphics sized to the terminal, leaving one row for the prompt.
func drawInline(ctx context.Context, w io.Writer, store *cache.Store, cfg *config.Config, opts chart.Options, p render.Protocol, sample func() (*collectors.Snapshot, error)) error {
	snap, err := chartSnapshot(ctx, store, cfg, sample)
	if err != nil {
		return err
	}
	img, err := chart.Render(snap, opts)
	if err != nil {
		return err
	}
	cols, rows := layout.DetectTerminalSize()
	res, err := render.Image(img, render.Options{Protocol: p, Cols: cols, Rows: max(rows-1, 1)})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, res.Output)
	return err
}

// applyColor disables styling unless w is a color-capable terminal.
func applyColor(w io.Writer) {
	if f, ok := w.(*os.File); ok {
		color.Apply(f)
		return
	}
	color.ForceDisable()
}
