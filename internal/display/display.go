// Package display renders the sequential stage log and the final run summary
// to the terminal. Every pipeline stage is one blocking child process, so the
// log is line-oriented: a start line when a stage launches, a marker line
// when it finishes, warning lines for skips and degradations.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/renderlabs/photopipe/internal/stage"
)

// Flusher is an optional interface for writers that support flushing.
type Flusher interface {
	Sync() error
}

// Display writes formatted status output.
type Display struct {
	out io.Writer
	mu  sync.Mutex
}

// New creates a Display writing to out.
func New(out io.Writer) *Display {
	return &Display{out: out}
}

func (d *Display) flush() {
	if f, ok := d.out.(Flusher); ok {
		f.Sync()
	}
}

// Header prints the run header line.
func (d *Display) Header(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "\n%s\n\n", StyleTitle.Render(title))
	d.flush()
}

// StageStart announces a stage launch.
func (d *Display) StageStart(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s %s\n", StyleStageArrow.String(), StyleAccent.Render(name))
	d.flush()
}

// StageResult prints the outcome marker for a finished stage.
func (d *Display) StageResult(res stage.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	elapsed := StyleMuted.Render(fmt.Sprintf("(%s)", formatDuration(res.Duration)))
	if res.Success {
		fmt.Fprintf(d.out, "  %s %s %s\n", StyleCheck.String(), res.Stage, elapsed)
	} else {
		detail := ""
		if res.Err != nil {
			detail = ": " + res.Err.Error()
		}
		fmt.Fprintf(d.out, "  %s %s %s%s\n", StyleCross.String(), res.Stage, elapsed, StyleError.Render(detail))
	}
	d.flush()
}

// Branch announces which reconstruction branch was selected.
func (d *Display) Branch(accelerated bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if accelerated {
		fmt.Fprintf(d.out, "%s\n", StyleInfo.Render("CUDA build detected — taking dense reconstruction path"))
	} else {
		fmt.Fprintf(d.out, "%s\n", StyleInfo.Render("no CUDA support — taking sparse fallback path"))
	}
	d.flush()
}

// Warnf prints a warning line (degraded stage, skipped stage, missing
// artifact).
func (d *Display) Warnf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s %s\n", StyleBang.String(), StyleWarning.Render(fmt.Sprintf(format, args...)))
	d.flush()
}

// Infof prints an informational line.
func (d *Display) Infof(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s\n", StyleMuted.Render(fmt.Sprintf(format, args...)))
	d.flush()
}

// Errorf prints an error line.
func (d *Display) Errorf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s %s\n", StyleCross.String(), StyleError.Render(fmt.Sprintf(format, args...)))
	d.flush()
}

// SummaryBox renders the final run summary inside a colored box. kind
// selects the border: "success", "warning", or "error".
func (d *Display) SummaryBox(kind, title string, lines []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var box = SuccessBox()
	switch kind {
	case "warning":
		box = WarningBox()
	case "error":
		box = ErrorBox()
	}

	content := StyleTitle.Render(title)
	if len(lines) > 0 {
		content += "\n" + strings.Join(lines, "\n")
	}
	fmt.Fprintf(d.out, "\n%s\n", box.Render(content))
	d.flush()
}

// formatDuration trims sub-second noise from durations a human reads in a
// stage log.
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		return d.Round(time.Second).String()
	}
	if d >= time.Second {
		return d.Round(100 * time.Millisecond).String()
	}
	return d.Round(time.Millisecond).String()
}
