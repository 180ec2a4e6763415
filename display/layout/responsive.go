// Package layout sizes the dashboard to the terminal.
//
// Three modes are supported:
//   - Compact (< 100 cols): channel panels stacked in one column
//   - Standard (>= 100 cols): panels in a 2x2 grid
//   - Wide (>= 160 cols, >= 30 rows): all four panels side by side
//
// The process table takes whatever height the panels leave.
package layout

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// Mode is one of the supported layout modes.
type Mode int

const (
	ModeCompact Mode = iota
	ModeStandard
	ModeWide
)

func (m Mode) String() string {
	switch m {
	case ModeCompact:
		return "compact"
	case ModeStandard:
		return "standard"
	case ModeWide:
		return "wide"
	default:
		return "unknown"
	}
}

type target struct {
	minWidth  int
	minHeight int
	mode      Mode
	columns   int
}

// targets are ordered from largest to smallest.
var targets = []target{
	{minWidth: 160, minHeight: 30, mode: ModeWide, columns: 4},
	{minWidth: 100, minHeight: 0, mode: ModeStandard, columns: 2},
}

const (
	// panelHeight is the tallest channel panel: title, sparkline, gauge.
	panelHeight = 3
	// panelGap is the horizontal space between grid columns.
	panelGap = 2
	// minProcessRows is the table height kept even on short terminals.
	minProcessRows = 3
	// chromeRows covers the header, status bar, table header and footer.
	chromeRows = 6
)

// DetectTerminalSize returns the terminal dimensions of stdout, then
// COLUMNS/LINES, then 80x24.
func DetectTerminalSize() (width, height int) {
	w, h, err := term.GetSize(os.Stdout.Fd())
	if err == nil && w > 0 && h > 0 {
		return w, h
	}

	width, height = envInt("COLUMNS"), envInt("LINES")
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	return width, height
}

func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// DetectMode returns the largest mode that fits width x height.
func DetectMode(width, height int) Mode {
	for _, t := range targets {
		if width >= t.minWidth && height >= t.minHeight {
			return t.mode
		}
	}
	return ModeCompact
}

// Grid is the computed geometry for one terminal size.
type Grid struct {
	Mode        Mode
	Width       int
	Height      int
	Columns     int
	PanelWidth  int
	ProcessRows int
}

// NewGrid computes the grid for width x height. Pass 0, 0 to detect the
// terminal size.
func NewGrid(width, height int) Grid {
	if width <= 0 || height <= 0 {
		width, height = DetectTerminalSize()
	}

	g := Grid{Mode: DetectMode(width, height), Width: width, Height: height, Columns: 1}
	for _, t := range targets {
		if t.mode == g.Mode {
			g.Columns = t.columns
		}
	}
	g.PanelWidth = max((width-panelGap*(g.Columns-1))/g.Columns, 10)

	panelRows := (4 + g.Columns - 1) / g.Columns
	used := chromeRows + panelRows*(panelHeight+1)
	g.ProcessRows = max(height-used, minProcessRows)
	return g
}

// Arrange lays panels out in g.Columns columns, row by row.
func (g Grid) Arrange(panels []string) string {
	if len(panels) == 0 {
		return ""
	}
	cell := lipgloss.NewStyle().Width(g.PanelWidth)
	gap := strings.Repeat(" ", panelGap)

	var rows []string
	for i := 0; i < len(panels); i += g.Columns {
		end := min(i+g.Columns, len(panels))
		var cells []string
		for j, p := range panels[i:end] {
			if j > 0 {
				cells = append(cells, gap)
			}
			cells = append(cells, cell.Render(p))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n\n")
}
