// Package terminate delivers termination signals to processes. It tries
// a direct same-privilege signal first and, on a permission error,
// delegates to an external privileged-helper boundary. Outcomes are
// returned as Results, never as errors: callers branch on the taxonomy,
// not on error values.
package terminate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"syscall"

	"golang.org/x/sys/unix"
)

// Status is the core termination-result taxonomy.
type Status int

const (
	// StatusSuccess means the signal was delivered.
	StatusSuccess Status = iota

	// StatusPermissionDenied means neither the direct attempt nor the
	// helper had sufficient privileges.
	StatusPermissionDenied

	// StatusNotFound means no process with that PID exists.
	StatusNotFound

	// StatusFailed covers every other outcome; Result.Detail explains.
	StatusFailed
)

// String returns a short label for the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPermissionDenied:
		return "permission-denied"
	case StatusNotFound:
		return "not-found"
	default:
		return "failed"
	}
}

// Result is the outcome of one termination attempt.
type Result struct {
	Status Status

	// Detail carries a human-readable explanation for StatusFailed.
	Detail string
}

// HelperCode is the result vocabulary of the privileged-helper
// collaborator.
type HelperCode int

const (
	HelperSuccess HelperCode = iota
	HelperPermissionDenied
	HelperNotFound
	HelperTimeout
	HelperUnavailable
)

// Helper is the privileged-helper boundary: deliver sig to pid with
// elevated privileges. Registration and IPC transport are the
// collaborator's concern, not this package's.
type Helper func(ctx context.Context, pid int32, sig syscall.Signal) (HelperCode, error)

// Terminator sends signals and maps helper outcomes into the core
// taxonomy.
type Terminator struct {
	helper Helper
	logger *slog.Logger

	// kill performs the direct same-privilege signal attempt.
	// Overridable for testing.
	kill func(pid int, sig syscall.Signal) error
}

// New creates a Terminator. helper may be nil when no privileged path is
// available; a nil logger discards log output.
func New(helper Helper, logger *slog.Logger) *Terminator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Terminator{
		helper: helper,
		logger: logger,
		kill:   unix.Kill,
	}
}

// Signal delivers sig to pid. The direct attempt runs first; EPERM
// falls through to the helper when one is configured.
func (t *Terminator) Signal(ctx context.Context, pid int32, sig syscall.Signal) Result {
	if pid <= 0 {
		return Result{Status: StatusFailed, Detail: fmt.Sprintf("invalid PID %d", pid)}
	}

	err := t.kill(int(pid), sig)
	switch {
	case err == nil:
		return Result{Status: StatusSuccess}
	case errors.Is(err, unix.ESRCH):
		return Result{Status: StatusNotFound}
	case errors.Is(err, unix.EPERM):
		if t.helper == nil {
			return Result{Status: StatusPermissionDenied}
		}
		t.logger.Debug("direct signal denied, delegating to helper", "pid", pid, "signal", sig)
		return t.delegate(ctx, pid, sig)
	default:
		return Result{Status: StatusFailed, Detail: err.Error()}
	}
}

// delegate runs the helper and maps its code into the core taxonomy.
func (t *Terminator) delegate(ctx context.Context, pid int32, sig syscall.Signal) Result {
	code, err := t.helper(ctx, pid, sig)
	if err != nil {
		return Result{Status: StatusFailed, Detail: fmt.Sprintf("helper: %v", err)}
	}
	switch code {
	case HelperSuccess:
		return Result{Status: StatusSuccess}
	case HelperPermissionDenied:
		return Result{Status: StatusPermissionDenied}
	case HelperNotFound:
		return Result{Status: StatusNotFound}
	case HelperTimeout:
		return Result{Status: StatusFailed, Detail: "helper timed out"}
	case HelperUnavailable:
		return Result{Status: StatusFailed, Detail: "helper unavailable"}
	default:
		return Result{Status: StatusFailed, Detail: fmt.Sprintf("helper returned unknown code %d", code)}
	}
}
