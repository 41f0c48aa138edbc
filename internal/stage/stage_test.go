package stage

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestExecRunner_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX sh")
	}

	r := NewExecRunner(nil)
	res := r.Run(context.Background(), Stage{
		Name: "echo",
		Bin:  "sh",
		Args: []string{"-c", "echo hello; echo warn >&2"},
	})

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if !strings.Contains(res.Output, "hello") {
		t.Errorf("Output = %q, want to contain hello", res.Output)
	}
	if !strings.Contains(res.Stderr, "warn") {
		t.Errorf("Stderr = %q, want to contain warn", res.Stderr)
	}
	if res.Duration <= 0 {
		t.Error("Duration not recorded")
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX sh")
	}

	r := NewExecRunner(nil)
	res := r.Run(context.Background(), Stage{
		Name: "fail",
		Bin:  "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "broken") {
		t.Errorf("Err = %v, want stderr detail", res.Err)
	}
	if res.TimedOut {
		t.Error("TimedOut should be false for a plain failure")
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := NewExecRunner(nil)
	res := r.Run(context.Background(), Stage{
		Name: "missing",
		Bin:  "definitely-not-a-real-binary-xyz",
	})

	if res.Success {
		t.Fatal("expected failure for missing binary")
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "failed to start") {
		t.Errorf("Err = %v, want start failure", res.Err)
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX sh")
	}

	r := NewExecRunner(nil)
	res := r.Run(context.Background(), Stage{
		Name:    "hang",
		Bin:     "sh",
		Args:    []string{"-c", "sleep 10"},
		Timeout: 100 * time.Millisecond,
	})

	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "timed out") {
		t.Errorf("Err = %v, want timeout error", res.Err)
	}
}

func TestExecRunner_StreamsToLog(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX sh")
	}

	var log bytes.Buffer
	r := NewExecRunner(&log)
	r.Run(context.Background(), Stage{
		Name: "echo",
		Bin:  "sh",
		Args: []string{"-c", "echo streamed"},
	})

	if !strings.Contains(log.String(), "streamed") {
		t.Errorf("log = %q, want streamed output", log.String())
	}
}
