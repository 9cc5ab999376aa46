package procsnap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// psColumns are the fixed columns requested from the process listing
// tool. The trailing "=" suppresses header rows.
const psColumns = "user=,pid=,%cpu=,%mem=,command="

// psLine matches one row of listing output: user, pid, cpu%, mem%, and
// the command with its arguments. Rows that do not match (headers,
// truncated lines) are skipped.
var psLine = regexp.MustCompile(`^\s*(\S+)\s+(\d+)\s+([0-9.]+)\s+([0-9.]+)\s+(.+)$`)

// ErrDecodeFailure is returned when the listing tool's output bytes are
// not valid text.
var ErrDecodeFailure = errors.New("procsnap: process listing output is not valid text")

// NonZeroExitError is returned when the listing tool exits non-zero.
type NonZeroExitError struct {
	Code int
}

func (e *NonZeroExitError) Error() string {
	return fmt.Sprintf("procsnap: process listing exited with status %d", e.Code)
}

// Fetcher turns the OS process table into ProcessRecord slices. It is
// safe for use from a single goroutine at a time; the refresh
// orchestrator guarantees at most one fetch in flight.
type Fetcher struct {
	logger *slog.Logger

	// listProcesses runs the OS listing tool and returns its raw output.
	// Overridable for testing.
	listProcesses func(ctx context.Context) ([]byte, error)

	// executablePath performs the syscall-backed PID-to-path lookup.
	// Returns "" when the lookup is unavailable for that PID.
	// Overridable for testing.
	executablePath func(pid int32) string

	// physicalMemoryMB returns total physical memory in megabytes.
	// Overridable for testing.
	physicalMemoryMB func() float64

	memOnce sync.Once
	memMB   float64
}

// NewFetcher creates a Fetcher. If logger is nil, a no-op logger is used.
func NewFetcher(logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f := &Fetcher{logger: logger}
	f.listProcesses = func(ctx context.Context) ([]byte, error) {
		return exec.CommandContext(ctx, "ps", "axo", psColumns).Output()
	}
	f.executablePath = syscallExecutablePath
	f.physicalMemoryMB = hostPhysicalMemoryMB
	return f
}

// Fetch samples the process table once. It fails with a NonZeroExitError
// or ErrDecodeFailure when the listing tool misbehaves; individual
// malformed rows are silently skipped.
func (f *Fetcher) Fetch(ctx context.Context) ([]ProcessRecord, error) {
	out, err := f.listProcesses(ctx)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &NonZeroExitError{Code: exitErr.ExitCode()}
		}
		return nil, fmt.Errorf("procsnap: run process listing: %w", err)
	}
	if !utf8.Valid(out) {
		return nil, ErrDecodeFailure
	}

	f.memOnce.Do(func() {
		f.memMB = f.physicalMemoryMB()
		if f.memMB <= 0 {
			f.logger.Warn("physical memory size unavailable, memory figures will read zero")
		}
	})

	lines := strings.Split(string(out), "\n")
	records := make([]ProcessRecord, 0, len(lines))
	for _, line := range lines {
		rec, ok := f.parseLine(line)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	f.logger.Debug("process table sampled", "processes", len(records))
	return records, nil
}

// parseLine converts one listing row into a record. The second return
// value is false for rows that do not match the five-field pattern.
func (f *Fetcher) parseLine(line string) (ProcessRecord, bool) {
	m := psLine.FindStringSubmatch(line)
	if m == nil {
		return ProcessRecord{}, false
	}

	pid64, err := strconv.ParseInt(m[2], 10, 32)
	if err != nil {
		return ProcessRecord{}, false
	}
	pid := int32(pid64)

	cpuPct, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return ProcessRecord{}, false
	}
	memPct, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return ProcessRecord{}, false
	}

	command := strings.TrimSpace(m[5])
	exePath := f.resolveExecutablePath(pid, command)

	rec := ProcessRecord{
		PID:            pid,
		User:           m[1],
		CPUPercent:     cpuPct,
		MemoryMB:       memPct / 100 * f.memMB,
		Name:           processName(exePath, command),
		ExecutablePath: exePath,
	}
	if parent, ok := parentAppName(pathOrCommand(exePath, command)); ok {
		rec.ParentApp = parent
	}
	return rec, true
}

// resolveExecutablePath prefers the syscall-backed lookup and falls back
// to textual extraction from the command line. The syscall result is
// authoritative whenever present, which also covers the case where the
// two sources share a basename but disagree on the full path.
func (f *Fetcher) resolveExecutablePath(pid int32, command string) string {
	if p := f.executablePath(pid); p != "" {
		return p
	}
	return executableFromCommand(command)
}

// pathOrCommand returns the resolved path when available, otherwise the
// raw command line, for parent-application extraction.
func pathOrCommand(exePath, command string) string {
	if exePath != "" {
		return exePath
	}
	return command
}

// syscallExecutablePath asks the kernel for a PID's executable path.
func syscallExecutablePath(pid int32) string {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return ""
	}
	path, err := proc.Exe()
	if err != nil {
		return ""
	}
	return path
}

// hostPhysicalMemoryMB reads total physical memory from the host.
func hostPhysicalMemoryMB() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		return 0
	}
	return float64(vm.Total) / (1024 * 1024)
}
