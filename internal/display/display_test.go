package display

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/renderlabs/photopipe/internal/stage"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func TestStageResult_Success(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.StageResult(stage.Result{Stage: "mapper", Success: true, Duration: 90 * time.Second})

	out := plain(buf.String())
	if !strings.Contains(out, "✓ mapper") {
		t.Errorf("output = %q, want success marker", out)
	}
	if !strings.Contains(out, "1m30s") {
		t.Errorf("output = %q, want rounded duration", out)
	}
}

func TestStageResult_Failure(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.StageResult(stage.Result{
		Stage:    "stereo_fusion",
		Duration: 2 * time.Second,
		Err:      errors.New("exit status 1"),
	})

	out := plain(buf.String())
	if !strings.Contains(out, "✗ stereo_fusion") {
		t.Errorf("output = %q, want failure marker", out)
	}
	if !strings.Contains(out, "exit status 1") {
		t.Errorf("output = %q, want error detail", out)
	}
}

func TestBranch(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	d.Branch(true)
	if !strings.Contains(plain(buf.String()), "dense reconstruction path") {
		t.Errorf("output = %q, want dense branch line", plain(buf.String()))
	}

	buf.Reset()
	d.Branch(false)
	if !strings.Contains(plain(buf.String()), "fallback path") {
		t.Errorf("output = %q, want fallback branch line", plain(buf.String()))
	}
}

func TestWarnf(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.Warnf("skipping crop: %s missing", "dense/fused.ply")

	out := plain(buf.String())
	if !strings.Contains(out, "! skipping crop: dense/fused.ply missing") {
		t.Errorf("output = %q", out)
	}
}

func TestSummaryBox_ContainsLines(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.SummaryBox("success", "Run complete", []string{"sparse model: ok", "fused cloud: ok"})

	out := plain(buf.String())
	for _, want := range []string{"Run complete", "sparse model: ok", "fused cloud: ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{450 * time.Millisecond, "450ms"},
		{2500 * time.Millisecond, "2.5s"},
		{95 * time.Second, "1m35s"},
		{61 * time.Minute, "1h1m0s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
