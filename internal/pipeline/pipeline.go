// Package pipeline drives the reconstruction stages as an explicit state
// machine. The first three stages are unconditional and fatal on failure;
// the dense path degrades to the sparse fallback instead of aborting, and
// both success paths leave the canonical fused cloud at the same location so
// downstream stages never care which branch ran.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/renderlabs/photopipe/internal/colmap"
	"github.com/renderlabs/photopipe/internal/display"
	"github.com/renderlabs/photopipe/internal/stage"
	"github.com/renderlabs/photopipe/internal/workspace"
)

// State of the reconstruction state machine.
type State int

const (
	StateProbeAccelerated State = iota
	StateRunDensePath
	StateRunFallbackPath
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateProbeAccelerated:
		return "probe"
	case StateRunDensePath:
		return "dense"
	case StateRunFallbackPath:
		return "fallback"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Mode records which branch produced the canonical fused cloud. Reporting
// only; no branching decision ever reads it.
type Mode string

const (
	ModeNone        Mode = ""
	ModeAccelerated Mode = "accelerated"
	ModeFallback    Mode = "fallback"
)

// ErrFatalStage marks failure of an unconditional stage (feature extraction,
// matching, mapping). Nothing downstream can be trusted after one of these
// fails, so the run aborts.
var ErrFatalStage = errors.New("unconditional stage failed")

// ErrSparseModelMissing marks a fallback attempt with no sparse model to
// convert. There is no recoverable action.
var ErrSparseModelMissing = errors.New("sparse model missing")

// Config wires the pipeline's collaborators. Everything is explicit so the
// state machine stays pure and testable.
type Config struct {
	Engine    *colmap.Engine
	Runner    stage.Runner
	Workspace *workspace.Workspace
	Display   *display.Display

	ProbeTimeout time.Duration

	// ForceFallback skips the capability probe and the dense path entirely.
	ForceFallback bool
}

// Outcome aggregates what the reconstruction produced. DenseAttempted keeps
// "fallback because dense was never attempted" distinguishable from
// "fallback after dense failure".
type Outcome struct {
	State          State
	Mode           Mode
	Accelerated    bool // prober result
	DenseAttempted bool
	SparseBuilt    bool
	FusedBuilt     bool
	Stages         []stage.Result
	Err            error
}

// Pipeline runs the reconstruction stages for one workspace.
type Pipeline struct {
	cfg   Config
	state State
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Display == nil {
		cfg.Display = display.New(io.Discard)
	}
	return &Pipeline{cfg: cfg}
}

// Run executes the pipeline until a terminal state is reached. The returned
// Outcome has Err set only for fatal conditions (unconditional stage failure
// or an unrecoverable fallback); dense degradation is recovered internally.
func (p *Pipeline) Run(ctx context.Context) Outcome {
	out := Outcome{}
	w := p.cfg.Workspace
	e := p.cfg.Engine
	d := p.cfg.Display

	if err := w.EnsureDirs(); err != nil {
		p.state = StateFailed
		out.State = StateFailed
		out.Err = err
		return out
	}

	// Unconditional stages: any failure aborts the whole run.
	for _, s := range []stage.Stage{
		e.FeatureExtractor(w),
		e.ExhaustiveMatcher(w),
		e.Mapper(w),
	} {
		res := p.runStage(ctx, s, &out)
		if !res.Success {
			p.state = StateFailed
			out.State = StateFailed
			out.SparseBuilt = w.HasSparseModel()
			out.Err = fmt.Errorf("%w: %s", ErrFatalStage, resultDetail(res))
			return out
		}
	}
	out.SparseBuilt = w.HasSparseModel()

	p.state = StateProbeAccelerated
	if !p.cfg.ForceFallback {
		out.Accelerated = colmap.DetectCUDA(ctx, p.cfg.Runner, e.Bin, p.cfg.ProbeTimeout)
	}
	d.Branch(out.Accelerated)

	if out.Accelerated {
		p.state = StateRunDensePath
		if p.runDense(ctx, &out) {
			p.state = StateDone
			out.State = StateDone
			out.Mode = ModeAccelerated
			out.FusedBuilt = true
			return out
		}
		d.Warnf("dense reconstruction degraded — falling back to sparse conversion")
	}

	p.state = StateRunFallbackPath
	if err := p.runFallback(ctx, &out); err != nil {
		p.state = StateFailed
		out.State = StateFailed
		out.Err = err
		return out
	}

	p.state = StateDone
	out.State = StateDone
	out.Mode = ModeFallback
	out.FusedBuilt = true
	return out
}

// runDense attempts the dense path and reports whether it produced the fused
// cloud. Any failure here degrades rather than aborting.
func (p *Pipeline) runDense(ctx context.Context, out *Outcome) bool {
	w := p.cfg.Workspace
	e := p.cfg.Engine
	d := p.cfg.Display

	if !w.HasSparseModel() {
		d.Warnf("sparse model %s missing — dense path not attempted", w.SparseModelDir())
		return false
	}
	out.DenseAttempted = true

	for _, s := range []stage.Stage{
		e.ImageUndistorter(w),
		e.PatchMatchStereo(w),
		e.StereoFusion(w),
	} {
		res := p.runStage(ctx, s, out)
		if !res.Success {
			return false
		}
	}

	if !w.HasFused() {
		d.Warnf("stereo fusion finished but %s is missing", w.FusedPath())
		return false
	}
	return true
}

// runFallback converts the sparse model to a point cloud and installs it at
// the canonical fused path.
func (p *Pipeline) runFallback(ctx context.Context, out *Outcome) error {
	w := p.cfg.Workspace
	d := p.cfg.Display

	if !w.HasSparseModel() {
		return fmt.Errorf("%w: %s", ErrSparseModelMissing, w.SparseModelDir())
	}

	res := p.runStage(ctx, p.cfg.Engine.ModelConverter(w), out)
	if !res.Success {
		return fmt.Errorf("sparse conversion failed: %s", resultDetail(res))
	}

	if err := copyFile(w.SparseCloudPath(), w.FusedPath()); err != nil {
		return fmt.Errorf("install fallback cloud: %w", err)
	}
	d.Infof("copied %s to %s", w.SparseCloudPath(), w.FusedPath())
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, s stage.Stage, out *Outcome) stage.Result {
	p.cfg.Display.StageStart(s.Name)
	res := p.cfg.Runner.Run(ctx, s)
	p.cfg.Display.StageResult(res)
	out.Stages = append(out.Stages, res)
	return res
}

func resultDetail(res stage.Result) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return fmt.Sprintf("stage %s failed", res.Stage)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
