// Package history maintains the rolling time series of system-wide CPU
// and memory-pressure figures behind the bottom bar's charts. It is
// independent of per-process smoothing: percentages are computed as
// deltas of monotonically increasing tick counters divided by the delta
// of their sum, since tick units already represent CPU time.
package history

// DefaultMaxSamples caps each history buffer.
const DefaultMaxSamples = 60

// RawSnapshot is one observation of the system-wide counters. The tick
// fields are cumulative since boot; MemoryPressure is a 0..1 ratio.
type RawSnapshot struct {
	UserTicks      uint64
	SystemTicks    uint64
	IdleTicks      uint64
	MemoryPressure float64
}

// CPUSection is the chartable CPU slice of the bottom bar.
type CPUSection struct {
	// User, System and Idle are the latest percentages (0-100).
	User   float64
	System float64
	Idle   float64

	// The history slices hold the most recent samples, oldest first,
	// never exceeding the configured cap.
	UserHistory   []float64
	SystemHistory []float64
	IdleHistory   []float64
}

// MemorySection is the chartable memory slice of the bottom bar.
type MemorySection struct {
	// Pressure is the latest memory-pressure ratio (0-1).
	Pressure float64

	// PressureHistory holds the most recent ratios, oldest first.
	PressureHistory []float64
}

// BottomBar accumulates bottom-bar samples. Owned by the orchestrator's
// sequential pipeline; not safe for concurrent use.
type BottomBar struct {
	maxSamples int
	prev       *RawSnapshot

	userHist     []float64
	systemHist   []float64
	idleHist     []float64
	pressureHist []float64
}

// New creates a BottomBar retaining up to maxSamples entries per series.
// Caps below 1 fall back to DefaultMaxSamples.
func New(maxSamples int) *BottomBar {
	if maxSamples < 1 {
		maxSamples = DefaultMaxSamples
	}
	return &BottomBar{maxSamples: maxSamples}
}

// NextMetrics folds one raw snapshot into the history and returns the
// chartable sections. The very first call has no prior tick baseline;
// its raw counter ratios are recorded as-is. That differs deliberately
// from the per-process smoother's unsmoothed-first-sample behavior and
// matches the established bottom-bar output on first paint.
func (b *BottomBar) NextMetrics(raw RawSnapshot) (CPUSection, MemorySection) {
	var user, system, idle float64
	if b.prev == nil {
		user, system, idle = tickRatios(raw.UserTicks, raw.SystemTicks, raw.IdleTicks)
	} else {
		user, system, idle = tickRatios(
			raw.UserTicks-b.prev.UserTicks,
			raw.SystemTicks-b.prev.SystemTicks,
			raw.IdleTicks-b.prev.IdleTicks,
		)
	}
	prev := raw
	b.prev = &prev

	b.userHist = appendAndTrim(b.userHist, user, b.maxSamples)
	b.systemHist = appendAndTrim(b.systemHist, system, b.maxSamples)
	b.idleHist = appendAndTrim(b.idleHist, idle, b.maxSamples)
	b.pressureHist = appendAndTrim(b.pressureHist, raw.MemoryPressure, b.maxSamples)

	cpu := CPUSection{
		User:          user,
		System:        system,
		Idle:          idle,
		UserHistory:   copyFloats(b.userHist),
		SystemHistory: copyFloats(b.systemHist),
		IdleHistory:   copyFloats(b.idleHist),
	}
	mem := MemorySection{
		Pressure:        raw.MemoryPressure,
		PressureHistory: copyFloats(b.pressureHist),
	}
	return cpu, mem
}

// tickRatios converts three tick figures into percentages of their sum.
// A zero sum yields all zeros.
func tickRatios(user, system, idle uint64) (float64, float64, float64) {
	total := user + system + idle
	if total == 0 {
		return 0, 0, 0
	}
	t := float64(total)
	return 100 * float64(user) / t, 100 * float64(system) / t, 100 * float64(idle) / t
}

// appendAndTrim appends value and drops the oldest entries beyond cap.
func appendAndTrim(hist []float64, value float64, cap int) []float64 {
	hist = append(hist, value)
	if len(hist) > cap {
		hist = hist[len(hist)-cap:]
	}
	return hist
}

func copyFloats(src []float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	return out
}
