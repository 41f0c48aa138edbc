// Package controller is the top-level pipeline driver: it runs the
// reconstruction state machine to a terminal state, triggers post-processing
// when reconstruction completed, reports a final summary of every artifact
// produced, and persists a run manifest.
package controller

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/renderlabs/photopipe/internal/colmap"
	"github.com/renderlabs/photopipe/internal/config"
	"github.com/renderlabs/photopipe/internal/display"
	"github.com/renderlabs/photopipe/internal/featuredb"
	"github.com/renderlabs/photopipe/internal/pipeline"
	"github.com/renderlabs/photopipe/internal/ply"
	"github.com/renderlabs/photopipe/internal/postprocess"
	"github.com/renderlabs/photopipe/internal/stage"
	"github.com/renderlabs/photopipe/internal/workspace"
)

// Config wires a full pipeline run.
type Config struct {
	Workspace *workspace.Workspace
	Settings  *config.Config
	Runner    stage.Runner
	Display   *display.Display

	// ForceFallback skips the capability probe and the dense path.
	ForceFallback bool
}

// Controller drives a run end to end.
type Controller struct {
	cfg Config
}

// New creates a Controller. A nil Runner defaults to the exec-backed runner
// with diagnostics discarded (the display carries the user-facing log).
func New(cfg Config) *Controller {
	if cfg.Runner == nil {
		cfg.Runner = stage.NewExecRunner(nil)
	}
	if cfg.Display == nil {
		cfg.Display = display.New(io.Discard)
	}
	return &Controller{cfg: cfg}
}

// Run executes the pipeline. The returned error is non-nil exactly when the
// process must exit nonzero: an unconditional stage failed, or the
// reconstruction reached its failed state. Skipped post-processing and a
// degraded dense path are not errors.
func (c *Controller) Run(ctx context.Context) (*Manifest, error) {
	w := c.cfg.Workspace
	s := c.cfg.Settings
	d := c.cfg.Display

	d.Header("photopipe run — " + w.Root)

	m := &Manifest{
		RunID:     uuid.NewString(),
		Workspace: w.Root,
		StartedAt: time.Now().UTC(),
	}

	if err := w.Validate(); err != nil {
		m.Error = err.Error()
		m.FinishedAt = time.Now().UTC()
		d.Errorf("%v", err)
		c.report(m)
		return m, err
	}

	if n, err := w.CountImages(); err == nil {
		d.Infof("%d input images", n)
	}

	out := pipeline.New(pipeline.Config{
		Engine:        colmap.New(s.ColmapBin, s.StageTimeout),
		Runner:        c.cfg.Runner,
		Workspace:     w,
		Display:       d,
		ProbeTimeout:  s.ProbeTimeout,
		ForceFallback: c.cfg.ForceFallback,
	}).Run(ctx)

	m.State = out.State.String()
	m.Mode = string(out.Mode)
	m.Accelerated = out.Accelerated
	m.DenseAttempted = out.DenseAttempted
	m.appendStages(out.Stages)

	if stats, err := featuredb.ReadStats(w.DatabasePath()); err == nil {
		m.FeatureStats = stats
		d.Infof("feature database: %s", stats)
	}

	var runErr error
	if out.Err != nil {
		runErr = out.Err
		m.Error = out.Err.Error()
	}

	if out.State == pipeline.StateDone {
		pp := postprocess.Run(ctx, postprocess.Config{
			Runner:       c.cfg.Runner,
			Workspace:    w,
			Display:      d,
			CropperBin:   s.CropperBin,
			RendererBin:  s.RendererBin,
			Crop:         s.Crop,
			Render:       s.Render,
			StageTimeout: s.StageTimeout,
		})
		m.appendStages(pp.Stages)
		if pp.CropSkipped {
			m.Skipped = append(m.Skipped, "crop: "+pp.CropReason)
		}
		if pp.RenderSkipped {
			m.Skipped = append(m.Skipped, "render: "+pp.RenderReason)
		}
	} else {
		m.Skipped = append(m.Skipped,
			"crop: reconstruction did not complete",
			"render: reconstruction did not complete",
		)
		d.Warnf("skipping post-processing: reconstruction did not complete")
		if out.SparseBuilt {
			d.Infof("sparse reconstruction is still available under %s", w.SparseModelDir())
		}
	}

	m.Artifacts = collectArtifacts(w)
	m.FinishedAt = time.Now().UTC()

	if err := m.save(w.RunsDir()); err != nil {
		d.Warnf("could not write run manifest: %v", err)
	} else {
		d.Infof("run manifest: %s", m.path(w.RunsDir()))
	}

	c.report(m)
	return m, runErr
}

// report renders the final summary box.
func (c *Controller) report(m *Manifest) {
	d := c.cfg.Display

	var lines []string
	if m.Mode != "" {
		line := "mode: " + m.Mode
		if m.Mode == string(pipeline.ModeFallback) && m.DenseAttempted {
			line += " (dense path attempted and degraded)"
		}
		lines = append(lines, line)
	}
	for _, a := range m.Artifacts {
		if a.Exists {
			detail := a.Path
			if a.Points > 0 {
				detail += fmt.Sprintf(" (%d points)", a.Points)
			}
			lines = append(lines, a.Name+": "+detail)
		} else {
			lines = append(lines, a.Name+": not produced")
		}
	}
	for _, s := range m.Skipped {
		lines = append(lines, "skipped "+s)
	}

	switch {
	case m.Error != "":
		lines = append(lines, "error: "+m.Error)
		d.SummaryBox("error", "Pipeline failed", lines)
	case len(m.Skipped) > 0:
		d.SummaryBox("warning", "Pipeline finished with skipped stages", lines)
	default:
		d.SummaryBox("success", "Pipeline complete", lines)
	}
}

// collectArtifacts inventories the workspace outputs, with point counts for
// the clouds that exist.
func collectArtifacts(w *workspace.Workspace) []Artifact {
	arts := []Artifact{
		{Name: "feature database", Path: w.DatabasePath(), Exists: w.HasDatabase()},
		{Name: "sparse model", Path: w.SparseModelDir(), Exists: w.HasSparseModel()},
		{Name: "fused cloud", Path: w.FusedPath(), Exists: w.HasFused()},
		{Name: "cropped cloud", Path: w.CroppedPath(), Exists: w.HasCropped()},
		{Name: "preview video", Path: w.VideoPath(), Exists: w.HasVideo()},
	}
	for i := range arts {
		if !arts[i].Exists {
			continue
		}
		switch arts[i].Path {
		case w.FusedPath(), w.CroppedPath():
			if n, err := ply.CountVertices(arts[i].Path); err == nil {
				arts[i].Points = n
			}
		}
	}
	return arts
}
