// Package manpage generates a roff-formatted man page for host-pulse.
//
// Key bindings are read from the dashboard's keymap and the version from
// the build-time linker variables, so the page cannot drift from the binary.
//
// Usage:
//
//	host-pulse -man | man -l -
//	host-pulse -man > ~/.local/share/man/man1/host-pulse.1
package manpage

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/host-pulse/display/tui"
)

// Option documents one command-line flag.
type Option struct {
	Flag string
	Arg  string
	Desc string
}

// Options lists the flags in the order they appear on the page.
var Options = []Option{
	{"config", "PATH", "Path to the TOML configuration file. Default: ~/.config/host\\-pulse/config.toml."},
	{"once", "", "Prime the sampler, take one sample and print it. The pause between priming and sampling is the sample interval, capped at one second."},
	{"format", "FORMAT", "Output format for \\fB\\-once\\fR: text (default), json or yaml."},
	{"expand", "", "Print the full process list with \\fB\\-once\\fR instead of the top entries."},
	{"daemon", "", "Sample in the background and publish every snapshot and a health record to the cache directory."},
	{"watch", "", "Print one line per snapshot published by a running daemon."},
	{"attach", "", "Open the dashboard on the snapshots of a running daemon instead of sampling in-process."},
	{"png", "PATH", "Render the four history charts to a PNG file. Uses the daemon's latest snapshot when it is fresh, otherwise samples once."},
	{"inline", "", "Draw the history chart directly in the terminal using the Kitty or iTerm2 image protocol, or colored half\\-blocks elsewhere."},
	{"protocol", "NAME", "Image protocol for \\fB\\-inline\\fR: auto (default), kitty, iterm2 or unicode. Graphics protocols are not auto\\-detected over SSH."},
	{"health", "", "Check the daemon health record. Exit code 0 means a sample was published within two intervals."},
	{"json", "", "Output the health check as JSON. Must be used with \\fB\\-health\\fR."},
	{"demo", "", "Use the synthetic mock source instead of the host."},
	{"print\\-config", "", "Print the effective configuration as TOML and exit."},
	{"man", "", "Print this man page in roff format."},
	{"version", "", "Print the version, commit hash and build date, then exit."},
}

// Generate produces a complete man(1) page.
func Generate(version, commit, date string) string {
	var b strings.Builder

	writeHeader(&b, version)
	writeName(&b)
	writeSynopsis(&b)
	writeDescription(&b)
	writeOptions(&b)
	writeKeybindings(&b)
	writeConfiguration(&b)
	writeFiles(&b)
	writeEnvironment(&b)
	writeExitStatus(&b)
	writeFooter(&b, version, commit, date)

	return b.String()
}

// roffEscape escapes special roff characters in a string.
func roffEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `-`, `\-`)
	s = strings.ReplaceAll(s, `.`, `\&.`)
	return s
}

func writeHeader(b *strings.Builder, version string) {
	month := time.Now().Format("January 2006")
	fmt.Fprintf(b, ".TH HOST-PULSE 1 \"%s\" \"host-pulse %s\" \"User Commands\"\n", month, version)
}

func writeName(b *strings.Builder) {
	b.WriteString(`.SH NAME
host\-pulse \- real\-time host metrics sampler and dashboard
`)
}

func writeSynopsis(b *strings.Builder) {
	b.WriteString(`.SH SYNOPSIS
.B host\-pulse
[\fIOPTIONS\fR]
`)
}

func writeDescription(b *strings.Builder) {
	b.WriteString(`.SH DESCRIPTION
.B host\-pulse
samples CPU, memory, disk and network usage plus the busiest processes on a
fixed cadence. Each channel keeps a bounded history that is drawn as a
sparkline in the dashboard and as a line chart in PNG output.
.PP
A channel that cannot be read repeats its last value, or records 0 if it was
never read, and is flagged in the status bar.
.PP
With no mode flag the interactive dashboard is started.
`)
}

func writeOptions(b *strings.Builder) {
	b.WriteString(".SH OPTIONS\n")
	for _, o := range Options {
		b.WriteString(".TP\n")
		if o.Arg != "" {
			fmt.Fprintf(b, ".BR \\-%s \" \\fI%s\\fR\"\n", o.Flag, o.Arg)
		} else {
			fmt.Fprintf(b, ".B \\-%s\n", o.Flag)
		}
		b.WriteString(o.Desc + "\n")
	}
}

func writeKeybindings(b *strings.Builder) {
	b.WriteString(`.SH KEYBINDINGS
Clicking the \fB[more]\fR marker above the process table also toggles the
full process list.
`)
	for _, binding := range tui.Bindings() {
		keys := strings.Join(binding.Keys(), ", ")
		fmt.Fprintf(b, ".TP\n.B %s\n%s\n", roffEscape(keys), binding.Help().Desc)
	}
}

func writeConfiguration(b *strings.Builder) {
	b.WriteString(`.SH CONFIGURATION
Configuration is read from
.B ~/.config/host\-pulse/config.toml
or the path given with \fB\-config\fR. Unset keys keep their defaults.
.SS [general]
.TP
.B log_level
debug, info, warn or error. Default: info.
.TP
.B log_file
File receiving logs. Default: stderr, discarded in the dashboard.
.TP
.B cache_dir
Daemon snapshot, health and PID files. Default: ~/.cache/host\-pulse.
.SS [sampler]
.TP
.B sample_interval_ms
Sampling cadence. Default: 2000.
.TP
.B history_capacity
Samples kept per channel. Default: 30.
.TP
.B process_list_cap
Processes shown while the list is collapsed. Default: 20.
.TP
.B disk_path
Filesystem whose usage is sampled. Default: /.
.TP
.B read_timeout
Bound on each metric read. Default: "1s".
.TP
.B source
psutil (default), procfs (Linux only) or mock.
.SS [breaker]
.TP
.B enabled
Guard each channel with a circuit breaker. Default: true.
.TP
.B max_failures
Consecutive failures that open a breaker. Default: 3.
.TP
.B reset_timeout, max_reset_timeout
Initial and maximum wait before a half\-open probe. Defaults: "30s", "5m".
.SS [display]
.TP
.B sparkline_width
History width in the text report. Default: 30.
.TP
.B chart_width, chart_height
PNG size in pixels. Defaults: 960, 540.
`)
}

func writeFiles(b *strings.Builder) {
	b.WriteString(`.SH FILES
.TP
.I ~/.config/host\-pulse/config.toml
Configuration file.
.TP
.I ~/.cache/host\-pulse/snapshot.json
Latest snapshot published by the daemon.
.TP
.I ~/.cache/host\-pulse/health.json
Daemon health record read by \fB\-health\fR.
.TP
.I ~/.cache/host\-pulse/daemon.pid
Daemon PID file.
`)
}

func writeEnvironment(b *strings.Builder) {
	b.WriteString(`.SH ENVIRONMENT
.TP
.B HOSTPULSE_SAMPLE_INTERVAL_MS, HOSTPULSE_HISTORY_CAPACITY, HOSTPULSE_PROCESS_LIST_CAP
Override the matching sampler settings.
.TP
.B HOSTPULSE_SOURCE, HOSTPULSE_DISK_PATH
Override the metric source and sampled filesystem.
.TP
.B HOSTPULSE_LOG_LEVEL, HOSTPULSE_LOG_FILE, HOSTPULSE_CACHE_DIR
Override the general settings.
.TP
.B XDG_CONFIG_HOME, XDG_CACHE_HOME
Base directories for the configuration and cache.
.TP
.B COLUMNS, LINES
Terminal size when it cannot be queried.
`)
}

func writeExitStatus(b *strings.Builder) {
	b.WriteString(`.SH EXIT STATUS
.TP
.B 0
Success, or a healthy daemon with \fB\-health\fR.
.TP
.B 1
Error, invalid configuration, or a missing or stale daemon.
.TP
.B 2
Invalid command\-line flags.
`)
}

func writeFooter(b *strings.Builder, version, commit, date string) {
	fmt.Fprintf(b, ".SH VERSION\nhost\\-pulse %s (commit %s, built %s)\n", version, commit, date)
}
