package usage

import (
	"math"
	"testing"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
)

func TestFirstSampleHasNoValidInterval(t *testing.T) {
	records := []procsnap.ProcessRecord{{PID: 100, CPUPercent: 42}}
	ticks := map[int32]uint64{100: 1_000_000}

	out, state, valid := CalculateCPUUsage(records, ticks, nil, 1_000_000_000, 1, 1)
	if valid {
		t.Error("validInterval = true on first sample, want false")
	}
	if out[0].CPUPercent != 0 {
		t.Errorf("usage = %v, want exactly 0", out[0].CPUPercent)
	}
	if state.Ticks[100] != 1_000_000 {
		t.Errorf("state ticks = %d, want 1000000", state.Ticks[100])
	}
	if state.SampleTimeNanos != 1_000_000_000 {
		t.Errorf("state timestamp = %d", state.SampleTimeNanos)
	}
}

func TestTimebaseConversion(t *testing.T) {
	// Previous ticks 100_000_000 at t=1s, current 112_000_000 at t=2s,
	// timebase 125/3: delta 12_000_000 ticks -> 500_000_000 ns over a
	// 1_000_000_000 ns interval -> 50%.
	prev := &DeltaState{
		SampleTimeNanos: 1_000_000_000,
		Ticks:           map[int32]uint64{7: 100_000_000},
	}
	records := []procsnap.ProcessRecord{{PID: 7}}
	ticks := map[int32]uint64{7: 112_000_000}

	out, _, valid := CalculateCPUUsage(records, ticks, prev, 2_000_000_000, 125, 3)
	if !valid {
		t.Fatal("validInterval = false, want true")
	}
	if got := out[0].CPUPercent; math.Abs(got-50) > 1e-9 {
		t.Errorf("usage = %v, want 50", got)
	}
}

func TestNewPIDInsideValidPass(t *testing.T) {
	prev := &DeltaState{
		SampleTimeNanos: 0,
		Ticks:           map[int32]uint64{1: 500},
	}
	records := []procsnap.ProcessRecord{{PID: 1}, {PID: 2}}
	ticks := map[int32]uint64{1: 1500, 2: 9999}

	out, _, valid := CalculateCPUUsage(records, ticks, prev, 1_000_000_000, 1, 1)
	if !valid {
		t.Fatal("validInterval = false, want true")
	}
	if out[1].CPUPercent != 0 {
		t.Errorf("new PID usage = %v, want 0", out[1].CPUPercent)
	}
	if out[0].CPUPercent == 0 {
		t.Error("established PID usage = 0, want positive")
	}
}

func TestSubThresholdIntervalForcesZero(t *testing.T) {
	prev := &DeltaState{
		SampleTimeNanos: 1_000_000_000,
		Ticks:           map[int32]uint64{5: 0},
	}
	records := []procsnap.ProcessRecord{{PID: 5}}
	ticks := map[int32]uint64{5: 50_000_000}

	now := prev.SampleTimeNanos + MinValidIntervalNanos - 1
	out, _, valid := CalculateCPUUsage(records, ticks, prev, now, 1, 1)
	if valid {
		t.Error("validInterval = true for sub-threshold interval, want false")
	}
	if out[0].CPUPercent != 0 {
		t.Errorf("usage = %v, want 0", out[0].CPUPercent)
	}
}

func TestStalePIDsPruned(t *testing.T) {
	prev := &DeltaState{
		SampleTimeNanos: 0,
		Ticks:           map[int32]uint64{1: 100, 2: 200, 3: 300},
	}
	records := []procsnap.ProcessRecord{{PID: 1}}
	ticks := map[int32]uint64{1: 150}

	_, state, _ := CalculateCPUUsage(records, ticks, prev, 1_000_000_000, 1, 1)
	if len(state.Ticks) != 1 {
		t.Fatalf("state holds %d PIDs, want 1", len(state.Ticks))
	}
	if _, ok := state.Ticks[1]; !ok {
		t.Error("live PID missing from new state")
	}
}

func TestTickCounterRollbackClampsToZero(t *testing.T) {
	// A current count below the previous one (counter anomaly) must not
	// produce negative usage.
	prev := &DeltaState{
		SampleTimeNanos: 0,
		Ticks:           map[int32]uint64{9: 5_000_000},
	}
	records := []procsnap.ProcessRecord{{PID: 9}}
	ticks := map[int32]uint64{9: 4_000_000}

	out, _, _ := CalculateCPUUsage(records, ticks, prev, 1_000_000_000, 1, 1)
	if out[0].CPUPercent != 0 {
		t.Errorf("usage = %v, want 0 on rollback", out[0].CPUPercent)
	}
}
