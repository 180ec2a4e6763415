package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/internal/format"
)

// Alignment controls text placement within a column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Column defines one table column. A zero Width sizes the column to its
// widest cell.
type Column struct {
	Title string
	Width int
	Align Alignment
	// Flex marks the column that absorbs or gives up space when MaxWidth
	// forces a resize. Only the first flex column is used.
	Flex bool
}

// TableConfig holds everything needed to render a table.
type TableConfig struct {
	Columns     []Column
	Rows        [][]string
	MaxWidth    int
	ShowHeader  bool
	HeaderStyle lipgloss.Style
	RowStyle    lipgloss.Style
	AltRowStyle lipgloss.Style
	Separator   string
}

// DefaultTableConfig returns a headed table with two-space separators and
// striped rows.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		ShowHeader:  true,
		Separator:   "  ",
		HeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(colorMuted),
		RowStyle:    lipgloss.NewStyle(),
		AltRowStyle: lipgloss.NewStyle().Background(colorTableAlt),
	}
}

// RenderTable renders cfg as newline-joined rows.
func RenderTable(cfg TableConfig) string {
	if len(cfg.Columns) == 0 {
		return ""
	}
	if cfg.Separator == "" {
		cfg.Separator = "  "
	}
	widths := columnWidths(cfg)

	var lines []string
	if cfg.ShowHeader {
		cells := make([]string, len(cfg.Columns))
		for i, col := range cfg.Columns {
			cells[i] = pad(col.Title, widths[i], col.Align)
		}
		lines = append(lines, cfg.HeaderStyle.Render(strings.Join(cells, cfg.Separator)))
	}

	for r, row := range cfg.Rows {
		cells := make([]string, len(cfg.Columns))
		for i, col := range cfg.Columns {
			var text string
			if i < len(row) {
				text = row[i]
			}
			cells[i] = pad(text, widths[i], col.Align)
		}
		style := cfg.RowStyle
		if r%2 == 1 {
			style = cfg.AltRowStyle
		}
		lines = append(lines, style.Render(strings.Join(cells, cfg.Separator)))
	}
	return strings.Join(lines, "\n")
}

// pad fits s into width cells, truncating with an ellipsis when needed.
func pad(s string, width int, align Alignment) string {
	s = format.Fit(s, width)
	gap := width - ansi.StringWidth(s)
	if gap <= 0 {
		return s
	}
	if align == AlignRight {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

func columnWidths(cfg TableConfig) []int {
	widths := make([]int, len(cfg.Columns))
	flex := -1
	for i, col := range cfg.Columns {
		if col.Flex && flex < 0 {
			flex = i
		}
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		w := ansi.StringWidth(col.Title)
		for _, row := range cfg.Rows {
			if i < len(row) {
				w = max(w, ansi.StringWidth(row[i]))
			}
		}
		widths[i] = max(w, 1)
	}

	if cfg.MaxWidth <= 0 || flex < 0 {
		return widths
	}
	total := ansi.StringWidth(cfg.Separator) * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	widths[flex] = max(widths[flex]+cfg.MaxWidth-total, 1)
	return widths
}

// ProcessColumns are the columns of the process table. NAME flexes to fill
// the available width.
var ProcessColumns = []Column{
	{Title: "PID", Width: 7, Align: AlignRight},
	{Title: "NAME", Flex: true},
	{Title: "CPU%", Width: 6, Align: AlignRight},
	{Title: "MEM%", Width: 6, Align: AlignRight},
}

// ProcessRows converts ranked entries to table rows.
func ProcessRows(entries []collectors.ProcessInfo) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, p := range entries {
		rows = append(rows, []string{
			format.Int(int64(p.PID)),
			p.Name,
			format.Fixed1(p.CPUPercent),
			format.Fixed1(p.MemoryPercent),
		})
	}
	return rows
}

// RenderProcessTable renders a ranked process list in width cells. An empty
// list renders a placeholder line instead of a bare header.
func RenderProcessTable(list collectors.ProcessList, width int) string {
	if len(list.Entries) == 0 {
		return lipgloss.NewStyle().Foreground(colorMuted).Render("no process data")
	}
	cfg := DefaultTableConfig()
	cfg.Columns = ProcessColumns
	cfg.Rows = ProcessRows(list.Entries)
	cfg.MaxWidth = width
	return RenderTable(cfg)
}
