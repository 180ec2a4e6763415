// Package tui is the interactive dashboard. It renders Snapshots as they
// arrive and feeds user intent back to the sampler through a Toggle and a
// Trigger.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/display/layout"
	"gitlab.com/tinyland/lab/host-pulse/display/widgets"
	"gitlab.com/tinyland/lab/host-pulse/internal/format"
	"gitlab.com/tinyland/lab/host-pulse/sampler"
)

// zoneMore is the clickable "[more]"/"[less]" marker above the process table.
const zoneMore = "more"

// clockInterval redraws the header so the snapshot age keeps moving between
// updates.
const clockInterval = time.Second

// Trigger requests an immediate sampling cycle.
type Trigger interface {
	TriggerNow()
}

// Options configures a Model.
type Options struct {
	// Updates delivers snapshots. When it closes the dashboard quits.
	Updates <-chan *collectors.Snapshot
	// Toggle is flipped by the "show more" controls. May be nil, which
	// disables them.
	Toggle *sampler.Toggle
	// Trigger is asked for an immediate cycle on refresh and after a toggle.
	// May be nil.
	Trigger Trigger
	// Zones tracks mouse regions. Nil creates a private manager.
	Zones *zone.Manager
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

type snapshotMsg struct{ snap *collectors.Snapshot }

type feedClosedMsg struct{}

type clockMsg time.Time

// Model is the top-level bubbletea model for the dashboard.
type Model struct {
	opts   Options
	keys   keyMap
	help   help.Model
	grid   layout.Grid
	snap   *collectors.Snapshot
	offset int
	now    time.Time
	ready  bool
}

// NewModel returns a Model that reads snapshots from opts.Updates.
func NewModel(opts Options) Model {
	if opts.Zones == nil {
		opts.Zones = zone.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		opts: opts,
		keys: keys,
		help: help.New(),
		now:  opts.Now(),
	}
}

// Snapshot returns the snapshot currently on screen, or nil before the
// first update.
func (m Model) Snapshot() *collectors.Snapshot { return m.snap }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.opts.Updates), tickClock())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = msg.snap
		m.now = m.opts.Now()
		m.clampOffset()
		return m, waitForSnapshot(m.opts.Updates)

	case feedClosedMsg:
		return m, tea.Quit

	case clockMsg:
		m.now = m.opts.Now()
		return m, tickClock()

	case tea.WindowSizeMsg:
		m.grid = layout.NewGrid(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.ready = true
		m.clampOffset()

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft &&
			m.opts.Zones.Get(zoneMore).InBounds(msg) {
			m.toggleExpanded()
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.toggleExpanded()
		case key.Matches(msg, m.keys.Refresh):
			m.trigger()
		case key.Matches(msg, m.keys.ScrollDown):
			m.offset++
			m.clampOffset()
		case key.Matches(msg, m.keys.ScrollUp):
			m.offset--
			m.clampOffset()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

// toggleExpanded flips "show more" and asks for a cycle so the new process
// limit shows up without waiting a full interval.
func (m *Model) toggleExpanded() {
	if m.opts.Toggle == nil {
		return
	}
	m.opts.Toggle.Flip()
	m.offset = 0
	m.trigger()
}

func (m *Model) trigger() {
	if m.opts.Trigger != nil {
		m.opts.Trigger.TriggerNow()
	}
}

func (m *Model) clampOffset() {
	limit := 0
	if m.snap != nil {
		limit = max(len(m.snap.Processes.Entries)-m.grid.ProcessRows, 0)
	}
	m.offset = max(min(m.offset, limit), 0)
}

func waitForSnapshot(ch <-chan *collectors.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg{snap: snap}
	}
}

func tickClock() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockMsg(t) })
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{m.renderHeader()}
	if m.snap == nil {
		sections = append(sections, styleMeta.Render("waiting for first sample..."))
	} else {
		sections = append(sections,
			m.renderPanels(),
			widgets.RenderStatusBar(m.snap),
			m.renderProcesses(),
		)
	}
	sections = append(sections, styleFooter.Render(m.help.View(m.keys)))

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return m.opts.Zones.Scan(styleApp.Width(m.grid.Width).Render(view))
}

func (m Model) renderHeader() string {
	title := styleTitle.Render("host-pulse")
	if m.snap == nil {
		return styleHeader.Width(m.grid.Width).Render(title)
	}

	meta := fmt.Sprintf("  %s · #%d · every %s · %s",
		m.snap.Source, m.snap.Seq, format.Duration(m.snap.Interval), format.Age(m.snap.TakenAt, m.now))
	line := title + styleMeta.Render(meta)
	if m.snap.Stale(m.now) {
		line += "  " + styleStale.Render("STALE")
	}
	return styleHeader.Width(m.grid.Width).Render(line)
}

func (m Model) renderPanels() string {
	panels := make([]string, 0, len(collectors.SeriesChannels))
	for _, ch := range collectors.SeriesChannels {
		panels = append(panels, widgets.RenderChannelPanel(m.snap, ch, m.grid.PanelWidth))
	}
	return m.grid.Arrange(panels)
}

func (m Model) renderProcesses() string {
	list := m.snap.Processes

	title := styleSection.Render(fmt.Sprintf("Processes (%d of %d)", len(list.Entries), list.Total))
	if list.Dropped > 0 {
		title += styleMeta.Render(fmt.Sprintf("  %d unreadable", list.Dropped))
	}
	if st, ok := m.snap.Status(collectors.ChannelProcesses); ok && st.State != collectors.ReadOK {
		title += "  " + styleError.Render("process scan failed")
	}
	if m.opts.Toggle != nil && (list.Truncated() || list.Expanded) {
		label := "[more]"
		if list.Expanded {
			label = "[less]"
		}
		title += "  " + m.opts.Zones.Mark(zoneMore, styleMore.Render(label))
	}

	visible := list
	end := min(m.offset+m.grid.ProcessRows, len(list.Entries))
	visible.Entries = list.Entries[m.offset:end]
	body := widgets.RenderProcessTable(visible, m.grid.Width)

	return strings.Join([]string{title, body}, "\n")
}
