// Package usage holds the stateful arithmetic of the sampling pipeline:
// converting cumulative per-PID CPU ticks into percentage usage, and
// damping sampling jitter with bounded moving averages. Nothing in this
// package touches an OS API; all inputs are synthetic-testable values.
package usage

import (
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
)

// MinValidIntervalNanos is the minimum wall-clock interval between two
// samples for a CPU delta to be meaningful. Below it, back-to-back
// refreshes would divide by a near-zero elapsed time.
const MinValidIntervalNanos = int64(100_000_000)

// DeltaState carries the previous sample's per-PID cumulative tick
// counts and its timestamp. It is owned by the refresh orchestrator and
// threaded through CalculateCPUUsage; entries for PIDs absent from the
// current sample are pruned every pass.
type DeltaState struct {
	// SampleTimeNanos is the wall-clock timestamp of the sample, in
	// nanoseconds.
	SampleTimeNanos int64

	// Ticks maps PID to that sample's cumulative CPU tick count.
	Ticks map[int32]uint64
}

// CalculateCPUUsage converts two point-in-time tick samples into
// percentage CPU usage per record. currentTicks holds each live PID's
// cumulative tick count; ticks convert to nanoseconds as
// ticks*timebaseNum/timebaseDen.
//
// Records whose PID has no previous tick count report 0. When there is
// no previous state at all, or the wall interval since it is below
// MinValidIntervalNanos, every usage figure is forced to 0 and the
// returned validInterval is false so callers do not treat the pass as a
// real sample.
//
// The returned state contains exactly the PIDs present in currentTicks,
// mapped to their current counts, stamped with nowNanos.
func CalculateCPUUsage(
	records []procsnap.ProcessRecord,
	currentTicks map[int32]uint64,
	prev *DeltaState,
	nowNanos int64,
	timebaseNum, timebaseDen uint64,
) ([]procsnap.ProcessRecord, *DeltaState, bool) {
	next := &DeltaState{
		SampleTimeNanos: nowNanos,
		Ticks:           make(map[int32]uint64, len(currentTicks)),
	}
	for pid, ticks := range currentTicks {
		next.Ticks[pid] = ticks
	}

	validInterval := prev != nil
	var elapsed int64
	if prev != nil {
		elapsed = nowNanos - prev.SampleTimeNanos
		if elapsed < MinValidIntervalNanos {
			validInterval = false
		}
	}

	out := make([]procsnap.ProcessRecord, len(records))
	copy(out, records)
	for i := range out {
		out[i].CPUPercent = 0
		if !validInterval {
			continue
		}

		cur, haveCur := currentTicks[out[i].PID]
		prevTicks, havePrev := prev.Ticks[out[i].PID]
		if !haveCur || !havePrev {
			// Newly observed PID: no baseline yet.
			continue
		}

		deltaTicks := uint64(0)
		if cur > prevTicks {
			deltaTicks = cur - prevTicks
		}
		if timebaseDen == 0 {
			continue
		}
		deltaNanos := float64(deltaTicks) * float64(timebaseNum) / float64(timebaseDen)
		out[i].CPUPercent = 100 * deltaNanos / float64(elapsed)
	}

	return out, next, validInterval
}
