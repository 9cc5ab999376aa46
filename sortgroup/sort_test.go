package sortgroup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
)

func pids(records []procsnap.ProcessRecord) []int32 {
	out := make([]int32, len(records))
	for i, r := range records {
		out[i] = r.PID
	}
	return out
}

func TestTieBreaksByNameThenPID(t *testing.T) {
	records := []procsnap.ProcessRecord{
		{PID: 200, Name: "same", CPUPercent: 10},
		{PID: 100, Name: "same", CPUPercent: 10},
		{PID: 300, Name: "Alpha", CPUPercent: 10},
	}

	got := Sort(records, KeyCPU, "", true)
	want := []int32{300, 100, 200}
	for i, pid := range want {
		if got[i].PID != pid {
			t.Fatalf("order = %v, want %v", pids(got), want)
		}
	}
}

func TestNaNSortsLastInBothDirections(t *testing.T) {
	records := []procsnap.ProcessRecord{
		{PID: 1, Name: "a", CPUPercent: math.NaN()},
		{PID: 2, Name: "b", CPUPercent: 5},
		{PID: 3, Name: "c", CPUPercent: 95},
	}

	for _, descending := range []bool{true, false} {
		got := Sort(records, KeyCPU, "", descending)
		if got[len(got)-1].PID != 1 {
			t.Errorf("descending=%v: NaN record at position %v, want last", descending, pids(got))
		}
	}
}

func TestSortByMemory(t *testing.T) {
	records := []procsnap.ProcessRecord{
		{PID: 1, Name: "small", MemoryMB: 10, CPUPercent: 99},
		{PID: 2, Name: "big", MemoryMB: 500, CPUPercent: 1},
	}
	got := Sort(records, KeyMemory, "", true)
	if got[0].PID != 2 {
		t.Errorf("order = %v, want memory-descending", pids(got))
	}
}

func TestFilterAppliesAfterSort(t *testing.T) {
	records := []procsnap.ProcessRecord{
		{PID: 1, Name: "Safari", Description: "Web browser", CPUPercent: 5},
		{PID: 2, Name: "SafariHelper", CPUPercent: 50},
		{PID: 3, Name: "Mail", Description: "also a browser of sorts", CPUPercent: 20},
		{PID: 4, Name: "launchd", CPUPercent: 80},
	}

	got := Sort(records, KeyCPU, "browser", true)
	// Matches on name or description, relative CPU order preserved.
	want := []int32{3, 1}
	if len(got) != len(want) {
		t.Fatalf("filtered order = %v, want %v", pids(got), want)
	}
	for i, pid := range want {
		if got[i].PID != pid {
			t.Fatalf("filtered order = %v, want %v", pids(got), want)
		}
	}
}

// buildLargeSet returns a shuffled dataset large enough for the
// cancellable sort to hit multiple cancellation checks.
func buildLargeSet(n int) []procsnap.ProcessRecord {
	rng := rand.New(rand.NewSource(1))
	records := make([]procsnap.ProcessRecord, n)
	for i := range records {
		records[i] = procsnap.ProcessRecord{
			PID:        int32(i + 1),
			Name:       fmt.Sprintf("proc-%03d", rng.Intn(200)),
			CPUPercent: float64(rng.Intn(10000)) / 100,
			MemoryMB:   float64(rng.Intn(4096)),
		}
	}
	rng.Shuffle(n, func(i, j int) { records[i], records[j] = records[j], records[i] })
	return records
}

func TestCancellableSortMatchesPlainSort(t *testing.T) {
	records := buildLargeSet(5000)

	plain := Sort(records, KeyCPU, "", true)
	cancellable, err := SortContext(context.Background(), records, KeyCPU, "", true)
	if err != nil {
		t.Fatalf("SortContext: %v", err)
	}

	if len(plain) != len(cancellable) {
		t.Fatalf("lengths differ: %d vs %d", len(plain), len(cancellable))
	}
	for i := range plain {
		if plain[i].PID != cancellable[i].PID {
			t.Fatalf("orderings diverge at index %d: %d vs %d", i, plain[i].PID, cancellable[i].PID)
		}
	}
}

func TestCancelledSortFailsFast(t *testing.T) {
	records := buildLargeSet(5000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SortContext(ctx, records, KeyCPU, "", true)
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCancelledSortDoesNotMutateInput(t *testing.T) {
	records := buildLargeSet(5000)
	before := pids(records)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := SortContext(ctx, records, KeyCPU, "", true); err == nil {
		t.Fatal("expected a cancellation error")
	}

	after := pids(records)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("input mutated at index %d", i)
		}
	}
}

func TestGroupBuckets(t *testing.T) {
	records := []procsnap.ProcessRecord{
		{PID: 1, Name: "Safari", ParentApp: "Safari", CPUPercent: 10, MemoryMB: 100},
		{PID: 2, Name: "SafariWeb", ParentApp: "Safari", CPUPercent: 30, MemoryMB: 200},
		{PID: 3, Name: "launchd", IsSystem: true, CPUPercent: 1, MemoryMB: 10},
		{PID: 4, Name: "xpcproxy", IsSystem: true, CPUPercent: 2, MemoryMB: 5},
		{PID: 5, Name: "standalone", CPUPercent: 15, MemoryMB: 50},
	}

	groups := Group(records, KeyCPU, true)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}

	// Descending CPU: Safari 40, standalone 15, system 3.
	wantNames := []string{"Safari", "standalone", SystemGroupName}
	for i, name := range wantNames {
		if groups[i].Name != name {
			t.Fatalf("group order = %v, want %v", groupNames(groups), wantNames)
		}
	}

	safari := groups[0]
	if safari.CPUPercent != 40 || safari.MemoryMB != 300 {
		t.Errorf("Safari aggregates = (%v, %v), want (40, 300)", safari.CPUPercent, safari.MemoryMB)
	}
	if safari.Count() != 2 {
		t.Errorf("Safari members = %d, want 2", safari.Count())
	}

	system := groups[2]
	if !system.IsSystem {
		t.Error("system pseudo-group not flagged as system")
	}
	if system.Count() != 2 {
		t.Errorf("system members = %d, want 2", system.Count())
	}
}

func groupNames(groups []procsnap.ProcessGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
	}
	return out
}
