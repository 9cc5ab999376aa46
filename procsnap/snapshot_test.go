package procsnap

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

// newTestFetcher returns a Fetcher whose OS boundaries are replaced:
// listing output comes from the given bytes, the syscall path lookup is
// unavailable, and physical memory is fixed at 16384 MB.
func newTestFetcher(t *testing.T, output []byte, err error) *Fetcher {
	t.Helper()
	f := NewFetcher(nil)
	f.listProcesses = func(ctx context.Context) ([]byte, error) {
		return output, err
	}
	f.executablePath = func(pid int32) string { return "" }
	f.physicalMemoryMB = func() float64 { return 16384 }
	return f
}

func TestFetchParsesValidRows(t *testing.T) {
	out := []byte(
		"testuser 999001 12.5 1.0 /Applications/Safari.app/Contents/MacOS/Safari\n" +
			"root 999002 0.0 0.1 /usr/libexec/xpcproxy\n",
	)
	f := newTestFetcher(t, out, nil)

	records, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	safari := records[0]
	if safari.PID != 999001 {
		t.Errorf("pid = %d, want 999001", safari.PID)
	}
	if safari.User != "testuser" {
		t.Errorf("user = %q, want %q", safari.User, "testuser")
	}
	if safari.Name != "Safari" {
		t.Errorf("name = %q, want %q", safari.Name, "Safari")
	}
	if safari.ParentApp != "Safari" {
		t.Errorf("parent app = %q, want %q", safari.ParentApp, "Safari")
	}
	if safari.CPUPercent != 12.5 {
		t.Errorf("cpu = %v, want 12.5", safari.CPUPercent)
	}
	// 1.0% of 16384 MB.
	if safari.MemoryMB != 163.84 {
		t.Errorf("memory = %v MB, want 163.84", safari.MemoryMB)
	}
	if safari.ExecutablePath != "/Applications/Safari.app/Contents/MacOS/Safari" {
		t.Errorf("executable path = %q", safari.ExecutablePath)
	}

	xpc := records[1]
	if xpc.Name != "xpcproxy" {
		t.Errorf("name = %q, want %q", xpc.Name, "xpcproxy")
	}
	if xpc.ParentApp != "" {
		t.Errorf("parent app = %q, want empty", xpc.ParentApp)
	}
}

func TestFetchSkipsMalformedLines(t *testing.T) {
	out := []byte(
		"USER PID %CPU %MEM COMMAND\n" + // header-like row: %CPU is not numeric
			"\n" +
			"not enough fields\n" +
			"user 42 1.0 2.0 /usr/bin/true\n",
	)
	f := newTestFetcher(t, out, nil)

	records, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].PID != 42 {
		t.Errorf("pid = %d, want 42", records[0].PID)
	}
}

func TestFetchDecodeFailure(t *testing.T) {
	f := newTestFetcher(t, []byte{0xff, 0xfe, 0xfd}, nil)

	_, err := f.Fetch(context.Background())
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("err = %v, want ErrDecodeFailure", err)
	}
}

func TestFetchNonZeroExit(t *testing.T) {
	f := NewFetcher(nil)
	f.listProcesses = func(ctx context.Context) ([]byte, error) {
		return exec.CommandContext(ctx, "sh", "-c", "exit 3").Output()
	}

	_, err := f.Fetch(context.Background())
	var exitErr *NonZeroExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want NonZeroExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("exit code = %d, want 3", exitErr.Code)
	}
}

func TestSyscallPathPreferredOverCommand(t *testing.T) {
	out := []byte("user 7 0.0 0.0 /tmp/staging/Helper.app/Contents/MacOS/Helper --flag\n")
	f := newTestFetcher(t, out, nil)
	f.executablePath = func(pid int32) string {
		return "/Applications/Helper.app/Contents/MacOS/Helper"
	}

	records, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := records[0].ExecutablePath; got != "/Applications/Helper.app/Contents/MacOS/Helper" {
		t.Errorf("executable path = %q, want syscall result", got)
	}
}
