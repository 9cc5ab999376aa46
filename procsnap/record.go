// Package procsnap acquires point-in-time snapshots of the OS process
// table. It shells out to the platform process-listing tool, parses its
// tabular output into typed records, and resolves each process's
// executable path and parent-application grouping key. It performs no
// smoothing and no classification.
package procsnap

// Source describes where a process comes from, as resolved by the
// classifier. The zero value is SourceUnknown.
type Source int

const (
	// SourceUnknown is used when no executable path could be resolved or
	// no other category matched.
	SourceUnknown Source = iota

	// SourceSystem marks operating system processes.
	SourceSystem

	// SourceCurrentApp marks processes belonging to this application.
	SourceCurrentApp

	// SourceApplication marks processes launched from an application
	// bundle.
	SourceApplication

	// SourceCommandLine marks processes launched from command-line tool
	// locations.
	SourceCommandLine
)

// String returns a short lowercase label for the source.
func (s Source) String() string {
	switch s {
	case SourceSystem:
		return "system"
	case SourceCurrentApp:
		return "current-app"
	case SourceApplication:
		return "application"
	case SourceCommandLine:
		return "command-line"
	default:
		return "unknown"
	}
}

// ProcessRecord is one live process at a sampling instant. PID equality
// alone determines identity: two records with the same PID are the same
// process even if every other field differs across samples. Records are
// created fresh each sampling pass and replaced wholesale every refresh.
type ProcessRecord struct {
	// PID is unique among live processes at a sample instant, but PIDs
	// are reused by the OS over time.
	PID int32

	// Name is the short process name derived from the executable path or
	// the command line, with any trailing bundle suffix stripped.
	Name string

	// User is the owning user as reported by the process listing.
	User string

	// CPUPercent is the instantaneous CPU usage. The acquirer fills in
	// the listing tool's figure; the delta calculator and smoother
	// replace it.
	CPUPercent float64

	// MemoryMB is resident memory in megabytes, converted from the
	// listing tool's percent-of-physical-memory column.
	MemoryMB float64

	// Description is a human-readable explanation of what the process
	// is, filled in by the classifier.
	Description string

	// IsSystem reports membership in the system process set.
	IsSystem bool

	// IsCritical reports membership in the critical subset of the
	// system set.
	IsCritical bool

	// ParentApp is the application bundle name this process belongs to,
	// or empty when no bundle marker is present.
	ParentApp string

	// ExecutablePath is the resolved executable path, or empty when
	// neither the syscall lookup nor the command line yielded one.
	ExecutablePath string

	// Source is the classified origin of the process.
	Source Source
}

// ProcessGroup is a named cluster of records sharing a parent-application
// key, or the synthetic "system" key for ungrouped system processes.
// Groups are rebuilt from the current record set every refresh and never
// mutated in place.
type ProcessGroup struct {
	// Name is the grouping key.
	Name string

	// Records are the member processes.
	Records []ProcessRecord

	// CPUPercent is the sum of member CPU usage.
	CPUPercent float64

	// MemoryMB is the sum of member memory usage.
	MemoryMB float64

	// IsSystem reports whether the first member is a system process.
	IsSystem bool
}

// Count returns the number of member processes.
func (g ProcessGroup) Count() int {
	return len(g.Records)
}
