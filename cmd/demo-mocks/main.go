// Command demo-mocks renders dashboard frames from the synthetic mock source
// without a terminal, for checking layouts at arbitrary sizes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/x/ansi"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/display/layout"
	"gitlab.com/tinyland/lab/host-pulse/display/widgets"
	"gitlab.com/tinyland/lab/host-pulse/sampler"
)

func main() {
	termWidth := flag.Int("width", 160, "Terminal width")
	termHeight := flag.Int("height", 40, "Terminal height")
	cycles := flag.Int("cycles", 10, "Sampling cycles to run before rendering")
	expand := flag.Bool("expand", false, "Render the full process list")
	plain := flag.Bool("plain", false, "Strip colors from the output")
	flag.Parse()

	if err := run(os.Stdout, *termWidth, *termHeight, *cycles, *expand, *plain); err != nil {
		fmt.Fprintf(os.Stderr, "demo-mocks: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, width, height, cycles int, expand, plain bool) error {
	smp := sampler.New(collectors.NewMockSource(), sampler.Options{Interval: time.Second})
	ctx := context.Background()
	if err := smp.Prime(ctx); err != nil {
		return err
	}

	var snap *collectors.Snapshot
	for i := 0; i < max(cycles, 1); i++ {
		var err error
		snap, err = smp.Tick(ctx, sampler.ViewState{ExpandProcesses: expand})
		if err != nil {
			return err
		}
	}

	grid := layout.NewGrid(width, height)
	panels := make([]string, 0, len(collectors.SeriesChannels))
	for _, ch := range collectors.SeriesChannels {
		panels = append(panels, widgets.RenderChannelPanel(snap, ch, grid.PanelWidth))
	}

	list := snap.Processes
	if len(list.Entries) > grid.ProcessRows {
		list.Entries = list.Entries[:grid.ProcessRows]
	}

	frame := fmt.Sprintf("=== host-pulse mock demo: %dx%d, %s layout, %d cycles ===\n\n%s\n\n%s\n\n%s\n",
		width, height, grid.Mode, max(cycles, 1),
		grid.Arrange(panels),
		widgets.RenderStatusBar(snap),
		widgets.RenderProcessTable(list, width),
	)
	if plain {
		frame = ansi.Strip(frame)
	}
	_, err := io.WriteString(w, frame)
	return err
}
