// Package sortgroup orders and clusters classified process records for
// presentation. Ordering is deterministic for any input permutation:
// non-finite values sort last regardless of direction, and ties break on
// case-insensitive name then PID. A cancellable variant serves large
// datasets under UI-driven cancellation.
package sortgroup

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
)

// SystemGroupName is the synthetic bucket for ungrouped system
// processes.
const SystemGroupName = "system"

// cancelCheckInterval is how many comparisons run between cooperative
// cancellation checks.
const cancelCheckInterval = 1024

// Key selects the numeric sort field.
type Key int

const (
	// KeyCPU sorts by CPU percentage.
	KeyCPU Key = iota

	// KeyMemory sorts by memory usage.
	KeyMemory
)

// Sort orders records by the chosen key and applies the case-insensitive
// substring filter over name and description. The filter runs after
// sorting, so it never changes relative order.
func Sort(records []procsnap.ProcessRecord, key Key, filterText string, descending bool) []procsnap.ProcessRecord {
	out := make([]procsnap.ProcessRecord, len(records))
	copy(out, records)

	sort.Slice(out, func(i, j int) bool {
		return recordLess(&out[i], &out[j], key, descending)
	})
	return filterRecords(out, filterText)
}

// SortContext behaves exactly like Sort but checks ctx between batches
// of comparisons and fails fast with an error satisfying
// errors.Is(err, ctx.Err()) when cancellation is requested. An
// uncancelled call produces the same ordering as Sort.
func SortContext(ctx context.Context, records []procsnap.ProcessRecord, key Key, filterText string, descending bool) (result []procsnap.ProcessRecord, err error) {
	out := make([]procsnap.ProcessRecord, len(records))
	copy(out, records)

	defer func() {
		if r := recover(); r != nil {
			if c, ok := r.(sortCancelled); ok {
				result, err = nil, fmt.Errorf("sortgroup: sort cancelled: %w", c.err)
				return
			}
			panic(r)
		}
	}()

	comparisons := 0
	sort.Slice(out, func(i, j int) bool {
		comparisons++
		if comparisons%cancelCheckInterval == 0 {
			if cerr := ctx.Err(); cerr != nil {
				panic(sortCancelled{err: cerr})
			}
		}
		return recordLess(&out[i], &out[j], key, descending)
	})
	if cerr := ctx.Err(); cerr != nil {
		return nil, fmt.Errorf("sortgroup: sort cancelled: %w", cerr)
	}
	return filterRecords(out, filterText), nil
}

// sortCancelled unwinds sort.Slice when the context ends mid-sort.
type sortCancelled struct {
	err error
}

// Group buckets records by parent-application name, the system
// pseudo-group for ungrouped system processes, or the record's own name.
// Groups are ordered by the same key and tie-break rules applied to
// their aggregates.
func Group(records []procsnap.ProcessRecord, key Key, descending bool) []procsnap.ProcessGroup {
	order := make([]string, 0)
	buckets := make(map[string][]procsnap.ProcessRecord)
	for _, rec := range records {
		name := groupName(rec)
		if _, ok := buckets[name]; !ok {
			order = append(order, name)
		}
		buckets[name] = append(buckets[name], rec)
	}

	groups := make([]procsnap.ProcessGroup, 0, len(order))
	for _, name := range order {
		members := buckets[name]
		g := procsnap.ProcessGroup{
			Name:     name,
			Records:  members,
			IsSystem: members[0].IsSystem,
		}
		for _, m := range members {
			g.CPUPercent += m.CPUPercent
			g.MemoryMB += m.MemoryMB
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groupLess(&groups[i], &groups[j], key, descending)
	})
	return groups
}

// groupName resolves the bucket for one record.
func groupName(rec procsnap.ProcessRecord) string {
	if rec.ParentApp != "" {
		return rec.ParentApp
	}
	if rec.IsSystem {
		return SystemGroupName
	}
	return rec.Name
}

// recordLess is the shared comparator: primary numeric key with
// NaN-last placement, then case-insensitive name, then PID.
func recordLess(a, b *procsnap.ProcessRecord, key Key, descending bool) bool {
	av, bv := recordValue(a, key), recordValue(b, key)
	if less, decided := numericLess(av, bv, descending); decided {
		return less
	}

	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.PID < b.PID
}

// groupLess applies the record rules to group aggregates and names.
func groupLess(a, b *procsnap.ProcessGroup, key Key, descending bool) bool {
	av, bv := groupValue(a, key), groupValue(b, key)
	if less, decided := numericLess(av, bv, descending); decided {
		return less
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

// numericLess resolves the primary comparison. The second return value
// is false for ties, deferring to the tie-break chain. Non-finite
// values sort after all finite ones in either direction.
func numericLess(a, b float64, descending bool) (bool, bool) {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return false, false
	case aNaN:
		return false, true
	case bNaN:
		return true, true
	}
	if a == b {
		return false, false
	}
	if descending {
		return a > b, true
	}
	return a < b, true
}

func recordValue(r *procsnap.ProcessRecord, key Key) float64 {
	if key == KeyMemory {
		return r.MemoryMB
	}
	return r.CPUPercent
}

func groupValue(g *procsnap.ProcessGroup, key Key) float64 {
	if key == KeyMemory {
		return g.MemoryMB
	}
	return g.CPUPercent
}

// filterRecords keeps records whose name or description contains the
// filter text, case-insensitively. An empty filter keeps everything.
func filterRecords(records []procsnap.ProcessRecord, filterText string) []procsnap.ProcessRecord {
	if filterText == "" {
		return records
	}
	needle := strings.ToLower(filterText)
	out := records[:0:0]
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Name), needle) ||
			strings.Contains(strings.ToLower(rec.Description), needle) {
			out = append(out, rec)
		}
	}
	return out
}
