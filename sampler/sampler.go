// Package sampler runs the sampling cycle: it reads every metric channel from
// a collectors.Source, appends one sample per channel to bounded histories,
// ranks the process list, and emits an immutable collectors.Snapshot.
package sampler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"emperror.dev/errors"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/history"
)

// ErrCycleInFlight is returned by Tick and Prime while a cycle is running.
const ErrCycleInFlight = collectors.ErrCycleInFlight

const (
	DefaultInterval        = 2 * time.Second
	DefaultHistoryCapacity = 30
	DefaultProcessListCap  = 20
	DefaultDiskPath        = "/"
	DefaultReadTimeout     = time.Second
)

// State is the sampler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateSampling
	StateAggregating
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSampling:
		return "sampling"
	case StateAggregating:
		return "aggregating"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Options configures a Sampler. Zero fields take the package defaults.
type Options struct {
	// Interval is the cadence the sampler is driven at. It is recorded in
	// each snapshot for staleness checks; the sampler does not schedule itself.
	Interval        time.Duration
	HistoryCapacity int
	ProcessListCap  int
	DiskPath        string
	ReadTimeout     time.Duration
	Logger          *slog.Logger
}

// DefaultOptions returns the defaults: 2s cadence, 30 samples, 20 processes.
func DefaultOptions() Options {
	return Options{
		Interval:        DefaultInterval,
		HistoryCapacity: DefaultHistoryCapacity,
		ProcessListCap:  DefaultProcessListCap,
		DiskPath:        DefaultDiskPath,
		ReadTimeout:     DefaultReadTimeout,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.Interval <= 0 {
		o.Interval = d.Interval
	}
	if o.HistoryCapacity < 1 {
		o.HistoryCapacity = d.HistoryCapacity
	}
	if o.ProcessListCap < 1 {
		o.ProcessListCap = d.ProcessListCap
	}
	if o.DiskPath == "" {
		o.DiskPath = d.DiskPath
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = d.ReadTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// ViewState is UI-owned state read once at the start of a cycle.
type ViewState struct {
	// ExpandProcesses lifts the process list cap for this cycle.
	ExpandProcesses bool
}

// Sampler owns the per-channel histories. It is the only writer to them;
// callers only ever see copies inside snapshots.
type Sampler struct {
	src    collectors.Source
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	state atomic.Int32

	// Fields below are touched only by the cycle holding the state.
	buffers map[collectors.Channel]*history.Buffer[float64]
	known   map[collectors.Channel]bool
	rate    netRate
	seq     uint64
}

// New creates a sampler reading from src. The four histories are allocated
// here and live as long as the sampler.
func New(src collectors.Source, opts Options) *Sampler {
	opts.applyDefaults()
	s := &Sampler{
		src:     src,
		opts:    opts,
		logger:  opts.Logger,
		now:     time.Now,
		buffers: make(map[collectors.Channel]*history.Buffer[float64], len(collectors.SeriesChannels)),
		known:   make(map[collectors.Channel]bool, len(collectors.SeriesChannels)),
	}
	for _, ch := range collectors.SeriesChannels {
		s.buffers[ch] = history.New[float64](opts.HistoryCapacity)
	}
	return s
}

// Options returns the effective options after defaults were applied.
func (s *Sampler) Options() Options { return s.opts }

// Source returns the metric source being sampled.
func (s *Sampler) Source() collectors.Source { return s.src }

// State returns the current lifecycle state.
func (s *Sampler) State() State { return State(s.state.Load()) }

// acquire moves Idle -> Sampling, failing if a cycle is already running.
func (s *Sampler) acquire() error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateSampling)) {
		return errors.WithStack(ErrCycleInFlight)
	}
	return nil
}

func (s *Sampler) release() { s.state.Store(int32(StateIdle)) }

// Prime probes every channel once without recording samples. It seeds the
// network baseline and the source's own delta state so that the first Tick
// reports meaningful CPU and network values. If no channel can be read at
// all, the source is unusable and an error wrapping
// collectors.ErrSourceUnavailable is returned.
func (s *Sampler) Prime(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	r := s.readAll(ctx)
	if r.netErr == nil {
		s.rate.seed(r.net.Total())
	}

	errs := r.errors()
	if len(errs) == len(channelOrder) {
		return errors.WithStack(fmt.Errorf("%s: %w: %w",
			s.src.Name(), collectors.ErrSourceUnavailable, errors.Combine(errs...)))
	}
	for _, err := range errs {
		s.logger.Warn("channel unavailable at startup", "source", s.src.Name(), "error", err)
	}
	s.logger.Debug("sampler primed", "source", s.src.Name(), "failed_channels", len(errs))
	return nil
}

// Tick runs one sampling cycle. It returns ErrCycleInFlight if another cycle
// is running, and the context error if ctx is already done. Otherwise it
// always returns a snapshot: a channel that cannot be read records its last
// known value, or 0 if it never had one.
func (s *Sampler) Tick(ctx context.Context, view ViewState) (*collectors.Snapshot, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.now()
	r := s.readAll(ctx)

	s.state.Store(int32(StateAggregating))
	snap := s.aggregate(r, view)

	s.logger.Debug("sampling cycle complete",
		"seq", snap.Seq,
		"cpu", snap.Current.CPU,
		"memory", snap.Current.Memory,
		"disk", snap.Current.Disk,
		"network_mb", snap.Current.Network,
		"processes", len(snap.Processes.Entries),
		"degraded", snap.Degraded(),
		"took", s.now().Sub(start),
	)
	return snap, nil
}

// channelOrder is the order channels appear in snapshot status.
var channelOrder = []collectors.Channel{
	collectors.ChannelCPU,
	collectors.ChannelMemory,
	collectors.ChannelDisk,
	collectors.ChannelNetwork,
	collectors.ChannelProcesses,
}

// readings holds the raw results of one round of reads.
type readings struct {
	cpu, mem, disk float64
	net            collectors.NetCounters
	procs          []collectors.ProcessInfo

	cpuErr, memErr, diskErr, netErr, procErr error
}

func (r *readings) err(ch collectors.Channel) error {
	switch ch {
	case collectors.ChannelCPU:
		return r.cpuErr
	case collectors.ChannelMemory:
		return r.memErr
	case collectors.ChannelDisk:
		return r.diskErr
	case collectors.ChannelNetwork:
		return r.netErr
	case collectors.ChannelProcesses:
		return r.procErr
	}
	return nil
}

func (r *readings) errors() []error {
	var errs []error
	for _, ch := range channelOrder {
		if err := r.err(ch); err != nil {
			errs = append(errs, collectors.ReadFailure(ch, err))
		}
	}
	return errs
}

// readAll performs the five reads concurrently, each bounded by ReadTimeout.
func (s *Sampler) readAll(ctx context.Context) *readings {
	var (
		r       readings
		wg      sync.WaitGroup
		timeout = s.opts.ReadTimeout
	)
	wg.Add(5)
	go func() {
		defer wg.Done()
		r.cpu, r.cpuErr = bounded(ctx, timeout, s.src.CPUPercent)
		r.cpuErr = checkPercent(r.cpu, r.cpuErr)
	}()
	go func() {
		defer wg.Done()
		r.mem, r.memErr = bounded(ctx, timeout, s.src.MemoryPercent)
		r.memErr = checkPercent(r.mem, r.memErr)
	}()
	go func() {
		defer wg.Done()
		r.disk, r.diskErr = bounded(ctx, timeout, func(ctx context.Context) (float64, error) {
			return s.src.DiskPercent(ctx, s.opts.DiskPath)
		})
		r.diskErr = checkPercent(r.disk, r.diskErr)
	}()
	go func() {
		defer wg.Done()
		r.net, r.netErr = bounded(ctx, timeout, s.src.NetworkCounters)
	}()
	go func() {
		defer wg.Done()
		r.procs, r.procErr = bounded(ctx, timeout, s.src.ListProcesses)
	}()
	wg.Wait()
	return &r
}

// bounded runs read with a deadline. A source that ignores its context is
// abandoned when the deadline passes; its result is discarded.
func bounded[T any](ctx context.Context, timeout time.Duration, read func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := read(ctx)
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		return zero, errors.Wrapf(ctx.Err(), "read timed out after %s", timeout)
	}
}

// checkPercent rejects values outside the source contract.
func checkPercent(v float64, err error) error {
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		return errors.Errorf("reading %v outside [0, 100]", v)
	}
	return nil
}

// aggregate appends one sample per channel and assembles the snapshot.
func (s *Sampler) aggregate(r *readings, view ViewState) *collectors.Snapshot {
	now := s.now()
	s.seq++
	snap := &collectors.Snapshot{
		Seq:      s.seq,
		TakenAt:  now,
		Interval: s.opts.Interval,
		Source:   s.src.Name(),
		Channels: make([]collectors.ChannelStatus, 0, len(channelOrder)),
	}

	snap.Current.CPU = s.record(snap, collectors.ChannelCPU, r.cpu, r.cpuErr, now)
	snap.Current.Memory = s.record(snap, collectors.ChannelMemory, r.mem, r.memErr, now)
	snap.Current.Disk = s.record(snap, collectors.ChannelDisk, r.disk, r.diskErr, now)

	var netMB float64
	if r.netErr == nil {
		var reset bool
		netMB, reset = s.rate.observe(r.net.Total())
		if reset {
			s.logger.Info("network counter reset", "total_bytes", r.net.Total())
			snap.Warnings = append(snap.Warnings,
				errors.Wrapf(collectors.ErrCounterReset, "network counter fell to %d bytes", r.net.Total()).Error())
		}
	}
	snap.Current.Network = s.record(snap, collectors.ChannelNetwork, netMB, r.netErr, now)

	limit := s.opts.ProcessListCap
	if view.ExpandProcesses {
		limit = 0
	}
	procStatus := collectors.ChannelStatus{Channel: collectors.ChannelProcesses, State: collectors.ReadOK}
	if r.procErr != nil {
		err := collectors.ReadFailure(collectors.ChannelProcesses, r.procErr)
		procStatus.State = collectors.ReadSentinel
		procStatus.Error = err.Error()
		snap.Warnings = append(snap.Warnings, err.Error())
		r.procs = nil
	}
	snap.Processes = RankProcesses(r.procs, limit)
	snap.Processes.Expanded = view.ExpandProcesses
	snap.Channels = append(snap.Channels, procStatus)

	snap.CPU = s.series(collectors.ChannelCPU, collectors.UnitPercent)
	snap.Memory = s.series(collectors.ChannelMemory, collectors.UnitPercent)
	snap.Disk = s.series(collectors.ChannelDisk, collectors.UnitPercent)
	snap.Network = s.series(collectors.ChannelNetwork, collectors.UnitMegabytes)
	return snap
}

// record appends exactly one sample for ch and returns the recorded value.
func (s *Sampler) record(snap *collectors.Snapshot, ch collectors.Channel, v float64, readErr error, at time.Time) float64 {
	buf := s.buffers[ch]
	status := collectors.ChannelStatus{Channel: ch, State: collectors.ReadOK}

	if readErr != nil {
		err := collectors.ReadFailure(ch, readErr)
		status.Error = err.Error()
		snap.Warnings = append(snap.Warnings, err.Error())

		last, ok := buf.Latest()
		if ok && s.known[ch] {
			v = last.Value
			status.State = collectors.ReadSubstituted
		} else {
			v = 0
			status.State = collectors.ReadSentinel
		}
		s.logger.Debug("channel read failed", "channel", ch, "substitute", v, "state", status.State, "error", err)
	} else {
		s.known[ch] = true
	}

	buf.AppendAt(v, at)
	snap.Channels = append(snap.Channels, status)
	return v
}

// series copies one history out of the sampler.
func (s *Sampler) series(ch collectors.Channel, unit collectors.Unit) collectors.Series {
	buf := s.buffers[ch]
	samples := buf.Samples()
	out := collectors.Series{
		Channel:  ch,
		Unit:     unit,
		Capacity: buf.Cap(),
		Values:   make([]float64, len(samples)),
		Times:    make([]time.Time, len(samples)),
	}
	for i, smp := range samples {
		out.Values[i] = smp.Value
		out.Times[i] = smp.At
	}
	return out
}
