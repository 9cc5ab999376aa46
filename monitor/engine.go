// Package monitor owns the refresh cycle: it coordinates the acquirer,
// classifier, delta calculator, smoothers and history under single-flight
// and cancellation rules, and publishes sorted, grouped snapshots for the
// presentation boundary.
package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/classify"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/history"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/sortgroup"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/usage"
)

// Phase is the orchestrator's state machine position.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseComputing
	PhasePublishing
)

// Fetcher is the snapshot-acquirer boundary.
type Fetcher interface {
	Fetch(ctx context.Context) ([]procsnap.ProcessRecord, error)
}

// Published is the externally observable result of one refresh. Only the
// publishing phase is expected to be observed from outside the engine.
type Published struct {
	Records []procsnap.ProcessRecord
	Groups  []procsnap.ProcessGroup
	CPU     history.CPUSection
	Memory  history.MemorySection

	// ValidInterval is false for cold-start or back-to-back passes whose
	// CPU figures are forced to zero.
	ValidInterval bool

	// Sequence increments once per publish.
	Sequence uint64

	Timestamp time.Time
}

// Options configures an Engine.
type Options struct {
	// SortKey and SortDescending order the published records and groups.
	SortKey        sortgroup.Key
	SortDescending bool

	// FilterText is the case-insensitive substring filter applied at
	// publish time.
	FilterText string

	// SmoothingWindow is the per-PID sample window;
	// usage.DefaultSmoothingWindow when zero.
	SmoothingWindow int

	// HistorySamples caps the bottom-bar buffers;
	// history.DefaultMaxSamples when zero.
	HistorySamples int

	// TimebaseNumerator/Denominator convert CPU ticks to nanoseconds.
	// Both default to 1 (ticks already in nanoseconds).
	TimebaseNumerator   uint64
	TimebaseDenominator uint64
}

// Engine drives Idle -> Fetching -> Computing -> Publishing -> Idle. A
// refresh request in any non-Idle phase is a no-op, so concurrent
// requests collapse to one in-flight fetch. The delta state, smoothing
// histories and bottom-bar buffers are owned by the single in-flight
// pipeline and guarded by pipelineMu only against explicit purges.
type Engine struct {
	fetcher    Fetcher
	classifier *classify.Classifier
	logger     *slog.Logger

	// optsMu guards the presentation options the UI may change between
	// refreshes; the sampling options are fixed at construction.
	optsMu sync.Mutex
	opts   Options

	phase atomic.Int32

	pipelineMu    sync.Mutex
	smoother      *usage.Smoother
	groupSmoother *usage.GroupSmoother
	bottomBar     *history.BottomBar
	deltaState    *usage.DeltaState

	publishMu sync.Mutex
	latest    *Published
	sequence  uint64
	onPublish func(Published)

	fetchCount atomic.Int64

	// OS boundaries, overridable for testing.
	cpuTicks       func(ctx context.Context, pids []int32) map[int32]uint64
	systemSnapshot func(ctx context.Context) (history.RawSnapshot, error)
	now            func() time.Time
}

// New creates an Engine. A nil logger discards log output.
func New(fetcher Fetcher, classifier *classify.Classifier, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.TimebaseNumerator == 0 {
		opts.TimebaseNumerator = 1
	}
	if opts.TimebaseDenominator == 0 {
		opts.TimebaseDenominator = 1
	}

	return &Engine{
		fetcher:        fetcher,
		classifier:     classifier,
		logger:         logger,
		opts:           opts,
		smoother:       usage.NewSmoother(opts.SmoothingWindow),
		groupSmoother:  usage.NewGroupSmoother(opts.SmoothingWindow, sortgroup.SystemGroupName),
		bottomBar:      history.New(opts.HistorySamples),
		cpuTicks:       hostCPUTicks,
		systemSnapshot: hostSystemSnapshot,
		now:            time.Now,
	}
}

// OnPublish registers the single callback invoked after each publish.
// Must be set before the engine starts refreshing.
func (e *Engine) OnPublish(fn func(Published)) {
	e.publishMu.Lock()
	e.onPublish = fn
	e.publishMu.Unlock()
}

// SetSortKey changes the published sort order, effective from the next
// refresh.
func (e *Engine) SetSortKey(key sortgroup.Key, descending bool) {
	e.optsMu.Lock()
	e.opts.SortKey = key
	e.opts.SortDescending = descending
	e.optsMu.Unlock()
}

// SetFilter changes the publish-time substring filter, effective from the
// next refresh.
func (e *Engine) SetFilter(text string) {
	e.optsMu.Lock()
	e.opts.FilterText = text
	e.optsMu.Unlock()
}

// Phase returns the current state machine position.
func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

// FetchCount reports how many fetches the engine has performed, across
// warmup passes and manual refreshes alike.
func (e *Engine) FetchCount() int64 {
	return e.fetchCount.Load()
}

// Latest returns the most recently published snapshot.
func (e *Engine) Latest() (Published, bool) {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()
	if e.latest == nil {
		return Published{}, false
	}
	return *e.latest, true
}

// RequestRefresh starts a refresh without blocking the caller. Requests
// arriving while a refresh is in flight are dropped by the Idle gate.
func (e *Engine) RequestRefresh(ctx context.Context) {
	go func() {
		if err := e.Refresh(ctx); err != nil {
			e.logger.Warn("background refresh failed", "error", err)
		}
	}()
}

// Refresh runs one full cycle. It returns nil both on success and when
// the request was dropped by the single-flight gate; acquisition
// failures degrade to "no update this cycle" with the prior published
// state retained. Only cancellation of the publish-phase sort surfaces,
// and it satisfies errors.Is(err, context.Canceled).
func (e *Engine) Refresh(ctx context.Context) error {
	if !e.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseFetching)) {
		e.logger.Debug("refresh dropped, another refresh in flight")
		return nil
	}
	defer e.phase.Store(int32(PhaseIdle))

	e.fetchCount.Add(1)
	records, err := e.fetcher.Fetch(ctx)
	if err != nil {
		// Fatal to this refresh only: keep the previous publication.
		e.logger.Warn("process snapshot unavailable, skipping cycle", "error", err)
		return nil
	}

	e.phase.Store(int32(PhaseComputing))
	records, valid := e.compute(ctx, records)

	e.phase.Store(int32(PhasePublishing))
	return e.publish(ctx, records, valid)
}

// compute runs the sequential pipeline: classify, delta, smooth,
// history. It holds pipelineMu so explicit history purges cannot race
// the pass.
func (e *Engine) compute(ctx context.Context, records []procsnap.ProcessRecord) ([]procsnap.ProcessRecord, bool) {
	e.pipelineMu.Lock()
	defer e.pipelineMu.Unlock()

	for i := range records {
		e.classifier.Classify(&records[i])
	}

	pids := make([]int32, len(records))
	for i, rec := range records {
		pids[i] = rec.PID
	}
	ticks := e.cpuTicks(ctx, pids)

	var valid bool
	records, e.deltaState, valid = usage.CalculateCPUUsage(
		records, ticks, e.deltaState,
		e.now().UnixNano(),
		e.opts.TimebaseNumerator, e.opts.TimebaseDenominator,
	)

	records = e.smoother.Smooth(records)
	return records, valid
}

// publish sorts and groups the finished records and exposes the result.
func (e *Engine) publish(ctx context.Context, records []procsnap.ProcessRecord, valid bool) error {
	e.optsMu.Lock()
	key, filter, descending := e.opts.SortKey, e.opts.FilterText, e.opts.SortDescending
	e.optsMu.Unlock()

	sorted, err := sortgroup.SortContext(ctx, records, key, filter, descending)
	if err != nil {
		e.logger.Debug("publish sort cancelled", "error", err)
		return err
	}

	groups := sortgroup.Group(records, key, descending)

	e.pipelineMu.Lock()
	groups = e.groupSmoother.Smooth(groups)
	var cpuSection history.CPUSection
	var memSection history.MemorySection
	if raw, snapErr := e.systemSnapshot(ctx); snapErr != nil {
		e.logger.Warn("system counters unavailable", "error", snapErr)
	} else {
		cpuSection, memSection = e.bottomBar.NextMetrics(raw)
	}
	e.pipelineMu.Unlock()

	e.publishMu.Lock()
	e.sequence++
	pub := Published{
		Records:       sorted,
		Groups:        groups,
		CPU:           cpuSection,
		Memory:        memSection,
		ValidInterval: valid,
		Sequence:      e.sequence,
		Timestamp:     e.now(),
	}
	e.latest = &pub
	fn := e.onPublish
	e.publishMu.Unlock()

	if fn != nil {
		fn(pub)
	}
	return nil
}

// ForgetProcess purges a PID's delta and smoothing state, forcing the
// next sample to start fresh. Called after a confirmed termination.
// PID reuse between refreshes is otherwise an accepted risk window:
// detection via executable-path identity would spuriously reset
// smoothing for processes whose path cannot be resolved at all.
func (e *Engine) ForgetProcess(pids ...int32) {
	e.pipelineMu.Lock()
	defer e.pipelineMu.Unlock()
	e.smoother.RemoveHistory(pids...)
	if e.deltaState != nil {
		for _, pid := range pids {
			delete(e.deltaState.Ticks, pid)
		}
	}
}

// Run refreshes on a fixed interval until ctx ends; it serves both the
// rapid warmup burst and steady sampling. The inter-sample sleep is
// cancellable, and cancellation wins over an already-expired timer, so
// no further fetch starts in that iteration. Stopping the loop never
// blocks later manual refreshes.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}

		if err := e.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn("scheduled refresh failed", "error", err)
		}
		timer.Reset(interval)
	}
}

// hostCPUTicks reads each PID's cumulative CPU time, in nanoseconds.
// PIDs that disappear mid-read are simply absent from the result.
func hostCPUTicks(ctx context.Context, pids []int32) map[int32]uint64 {
	out := make(map[int32]uint64, len(pids))
	for _, pid := range pids {
		proc, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			continue
		}
		times, err := proc.TimesWithContext(ctx)
		if err != nil {
			continue
		}
		out[pid] = uint64((times.User + times.System) * 1e9)
	}
	return out
}

// hostSystemSnapshot reads the system-wide CPU counters and memory
// pressure ratio.
func hostSystemSnapshot(ctx context.Context) (history.RawSnapshot, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return history.RawSnapshot{}, err
	}
	if len(times) == 0 {
		return history.RawSnapshot{}, errors.New("monitor: no aggregate CPU sample")
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return history.RawSnapshot{}, err
	}

	agg := times[0]
	return history.RawSnapshot{
		UserTicks:      uint64((agg.User + agg.Nice) * 1e9),
		SystemTicks:    uint64(agg.System * 1e9),
		IdleTicks:      uint64((agg.Idle + agg.Iowait) * 1e9),
		MemoryPressure: vm.UsedPercent / 100,
	}, nil
}
