package collectors

import (
	"math"
	"time"
)

// Channel names one metric stream retained by the sampler.
type Channel string

const (
	ChannelCPU       Channel = "cpu"
	ChannelMemory    Channel = "memory"
	ChannelDisk      Channel = "disk"
	ChannelNetwork   Channel = "network"
	ChannelProcesses Channel = "processes"
)

// SeriesChannels lists the channels that keep a history, in display order.
var SeriesChannels = []Channel{ChannelCPU, ChannelMemory, ChannelDisk, ChannelNetwork}

// Unit is the semantic unit of a series.
type Unit string

const (
	UnitPercent   Unit = "%"
	UnitMegabytes Unit = "MB"
)

// NetCounters holds cumulative network byte counters.
type NetCounters struct {
	BytesSent uint64 `json:"bytes_sent" yaml:"bytes_sent"`
	BytesRecv uint64 `json:"bytes_recv" yaml:"bytes_recv"`
}

// Total returns sent plus received bytes.
func (n NetCounters) Total() uint64 {
	return n.BytesSent + n.BytesRecv
}

// ProcessInfo is one process as seen during a single scan. It is never
// retained across cycles.
type ProcessInfo struct {
	PID           int32   `json:"pid" yaml:"pid"`
	Name          string  `json:"name" yaml:"name"`
	CPUPercent    float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent" yaml:"memory_percent"`
}

// Valid reports whether the entry carries readable metrics.
func (p ProcessInfo) Valid() bool {
	if p.PID <= 0 {
		return false
	}
	for _, v := range []float64{p.CPUPercent, p.MemoryPercent} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// ProcessList is a ranked, possibly truncated process table.
type ProcessList struct {
	// Entries are sorted by CPU descending; ties keep scan order.
	Entries []ProcessInfo `json:"entries" yaml:"entries"`

	// Total is the number of valid processes before truncation.
	Total int `json:"total" yaml:"total"`

	// Limit is the cap that was applied (0 = uncapped).
	Limit int `json:"limit" yaml:"limit"`

	// Expanded is true when the "show more" toggle was on for this cycle.
	Expanded bool `json:"expanded" yaml:"expanded"`

	// Dropped counts entries discarded because their metrics were unreadable.
	Dropped int `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

// Truncated reports whether entries were cut by the limit.
func (l ProcessList) Truncated() bool {
	return len(l.Entries) < l.Total
}

// Series is a read-only copy of one channel's history, oldest first.
type Series struct {
	Channel  Channel     `json:"channel" yaml:"channel"`
	Unit     Unit        `json:"unit" yaml:"unit"`
	Capacity int         `json:"capacity" yaml:"capacity"`
	Values   []float64   `json:"values" yaml:"values"`
	Times    []time.Time `json:"times" yaml:"times"`
}

// Last returns the newest value, or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Values[len(s.Values)-1]
}

// Readings are the scalar values recorded by one cycle.
type Readings struct {
	CPU     float64 `json:"cpu" yaml:"cpu"`
	Memory  float64 `json:"memory" yaml:"memory"`
	Disk    float64 `json:"disk" yaml:"disk"`
	Network float64 `json:"network_mb" yaml:"network_mb"`
}

// Get returns the reading for a series channel.
func (r Readings) Get(ch Channel) float64 {
	switch ch {
	case ChannelCPU:
		return r.CPU
	case ChannelMemory:
		return r.Memory
	case ChannelDisk:
		return r.Disk
	case ChannelNetwork:
		return r.Network
	}
	return 0
}

// ReadState describes how a channel's value for a cycle was obtained.
type ReadState string

const (
	// ReadOK means the value was read this cycle.
	ReadOK ReadState = "ok"
	// ReadSubstituted means the read failed and the last known value was reused.
	ReadSubstituted ReadState = "substituted"
	// ReadSentinel means the read failed with no prior value; 0 was recorded.
	ReadSentinel ReadState = "sentinel"
)

// ChannelStatus records the outcome of one channel read.
type ChannelStatus struct {
	Channel Channel   `json:"channel" yaml:"channel"`
	State   ReadState `json:"state" yaml:"state"`
	Error   string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Snapshot is the immutable output of one sampling cycle. Every slice is
// owned by the snapshot; nothing in it aliases sampler state.
type Snapshot struct {
	Seq      uint64        `json:"seq" yaml:"seq"`
	TakenAt  time.Time     `json:"taken_at" yaml:"taken_at"`
	Interval time.Duration `json:"interval_ns" yaml:"interval_ns"`
	Source   string        `json:"source" yaml:"source"`

	Current Readings `json:"current" yaml:"current"`

	CPU     Series `json:"cpu_history" yaml:"cpu_history"`
	Memory  Series `json:"memory_history" yaml:"memory_history"`
	Disk    Series `json:"disk_history" yaml:"disk_history"`
	Network Series `json:"network_history" yaml:"network_history"`

	Processes ProcessList `json:"processes" yaml:"processes"`

	Channels []ChannelStatus `json:"channels" yaml:"channels"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Series returns the history for a series channel.
func (s *Snapshot) Series(ch Channel) Series {
	switch ch {
	case ChannelCPU:
		return s.CPU
	case ChannelMemory:
		return s.Memory
	case ChannelDisk:
		return s.Disk
	case ChannelNetwork:
		return s.Network
	}
	return Series{Channel: ch}
}

// Status returns the read status for ch. ok is false if ch was not sampled.
func (s *Snapshot) Status(ch Channel) (ChannelStatus, bool) {
	for _, st := range s.Channels {
		if st.Channel == ch {
			return st, true
		}
	}
	return ChannelStatus{}, false
}

// Degraded reports whether any channel failed this cycle.
func (s *Snapshot) Degraded() bool {
	for _, st := range s.Channels {
		if st.State != ReadOK {
			return true
		}
	}
	return false
}

// Age returns how long ago the snapshot was taken.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.TakenAt)
}

// Stale reports whether the snapshot is older than two sampling intervals.
func (s *Snapshot) Stale(now time.Time) bool {
	if s.Interval <= 0 {
		return false
	}
	return s.Age(now) > 2*s.Interval
}
