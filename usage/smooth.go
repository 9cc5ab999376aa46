package usage

import (
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
)

// DefaultSmoothingWindow is the number of recent samples averaged per
// PID.
const DefaultSmoothingWindow = 3

// samplePair is one retained (CPU, memory) observation.
type samplePair struct {
	cpu float64
	mem float64
}

// Smoother damps per-process sampling jitter with a fixed-capacity FIFO
// of recent (CPU, memory) pairs per PID. The first sample of a PID is
// returned unsmoothed, the second is the mean of two, and so on; the
// window is never zero-padded. A PID absent from a call's input loses
// its history immediately, so reappearance restarts smoothing from
// scratch. Owned by the orchestrator's sequential pipeline; not safe for
// concurrent use.
type Smoother struct {
	window  int
	history map[int32][]samplePair
}

// NewSmoother creates a Smoother with the given window size. Sizes below
// 1 fall back to DefaultSmoothingWindow.
func NewSmoother(window int) *Smoother {
	if window < 1 {
		window = DefaultSmoothingWindow
	}
	return &Smoother{
		window:  window,
		history: make(map[int32][]samplePair),
	}
}

// Smooth appends each record's (CPU, memory) sample to its PID's window
// and replaces both figures with the window mean. History for PIDs not
// present in records is dropped.
func (s *Smoother) Smooth(records []procsnap.ProcessRecord) []procsnap.ProcessRecord {
	seen := make(map[int32]struct{}, len(records))

	out := make([]procsnap.ProcessRecord, len(records))
	copy(out, records)
	for i := range out {
		pid := out[i].PID
		seen[pid] = struct{}{}

		win := append(s.history[pid], samplePair{cpu: out[i].CPUPercent, mem: out[i].MemoryMB})
		if len(win) > s.window {
			win = win[len(win)-s.window:]
		}
		s.history[pid] = win

		out[i].CPUPercent, out[i].MemoryMB = windowMean(win)
	}

	for pid := range s.history {
		if _, ok := seen[pid]; !ok {
			delete(s.history, pid)
		}
	}
	return out
}

// RemoveHistory forces a smoothing restart for the given PIDs, e.g.
// after a process is known to have been terminated.
func (s *Smoother) RemoveHistory(pids ...int32) {
	for _, pid := range pids {
		delete(s.history, pid)
	}
}

// GroupSmoother applies the same running-mean logic to exactly one
// synthetic group, identified by name. Other group names come and go
// every sample without perturbing its single window; the window resets
// when the tracked group itself is absent from an input.
type GroupSmoother struct {
	window    int
	groupName string
	history   []samplePair
}

// NewGroupSmoother creates a GroupSmoother tracking the named group.
func NewGroupSmoother(window int, groupName string) *GroupSmoother {
	if window < 1 {
		window = DefaultSmoothingWindow
	}
	return &GroupSmoother{window: window, groupName: groupName}
}

// Smooth replaces the tracked group's aggregate CPU and memory with the
// mean over its window. Groups with other names pass through untouched.
func (g *GroupSmoother) Smooth(groups []procsnap.ProcessGroup) []procsnap.ProcessGroup {
	out := make([]procsnap.ProcessGroup, len(groups))
	copy(out, groups)

	found := false
	for i := range out {
		if out[i].Name != g.groupName {
			continue
		}
		found = true

		g.history = append(g.history, samplePair{cpu: out[i].CPUPercent, mem: out[i].MemoryMB})
		if len(g.history) > g.window {
			g.history = g.history[len(g.history)-g.window:]
		}
		out[i].CPUPercent, out[i].MemoryMB = windowMean(g.history)
	}

	if !found {
		g.history = nil
	}
	return out
}

// windowMean returns the arithmetic means of the window's contents.
func windowMean(win []samplePair) (cpu, mem float64) {
	if len(win) == 0 {
		return 0, 0
	}
	for _, p := range win {
		cpu += p.cpu
		mem += p.mem
	}
	n := float64(len(win))
	return cpu / n, mem / n
}
