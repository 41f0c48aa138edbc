// Package postprocess runs the spatial crop and preview render as the final
// pipeline stages. Each is gated on the existence of its input artifact and
// a missing input is a warning and a skip, never a failure: a degraded
// reconstruction still counts as a successful run.
package postprocess

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/renderlabs/photopipe/internal/config"
	"github.com/renderlabs/photopipe/internal/display"
	"github.com/renderlabs/photopipe/internal/stage"
	"github.com/renderlabs/photopipe/internal/workspace"
)

// Stage names.
const (
	StageCrop   = "crop"
	StageRender = "render"
)

// Config wires the post-processing stages.
type Config struct {
	Runner    stage.Runner
	Workspace *workspace.Workspace
	Display   *display.Display

	CropperBin  string
	RendererBin string

	Crop   config.CropConfig
	Render config.RenderConfig

	StageTimeout time.Duration
}

// Result records what post-processing produced and what it skipped.
type Result struct {
	CropSkipped   bool
	CropReason    string
	Cropped       bool
	RenderSkipped bool
	RenderReason  string
	VideoBuilt    bool
	Stages        []stage.Result
}

// Run executes the crop and render stages against the workspace.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Display == nil {
		cfg.Display = display.New(io.Discard)
	}
	w := cfg.Workspace
	d := cfg.Display
	out := Result{}

	if !w.HasFused() {
		out.CropSkipped = true
		out.CropReason = fmt.Sprintf("fused cloud %s missing", w.FusedPath())
		d.Warnf("skipping crop: %s", out.CropReason)
	} else {
		res := runStage(ctx, cfg, CropStage(cfg), &out)
		if res.Success && w.HasCropped() {
			out.Cropped = true
		} else if res.Success {
			d.Warnf("cropper finished but %s is missing", w.CroppedPath())
		}
	}

	// Rendering requires the cropped cloud, not the raw fused one: cropping
	// bounds the asset size fed to the renderer.
	if !w.HasCropped() {
		out.RenderSkipped = true
		out.RenderReason = fmt.Sprintf("cropped cloud %s missing", w.CroppedPath())
		d.Warnf("skipping render: %s", out.RenderReason)
		return out
	}

	res := runStage(ctx, cfg, RenderStage(cfg), &out)
	out.VideoBuilt = res.Success && w.HasVideo()
	return out
}

// CropStage builds the external cropper invocation. CenterCrop, when set,
// replaces the explicit box with a ratio crop around the model center.
func CropStage(cfg Config) stage.Stage {
	w := cfg.Workspace
	args := []string{w.FusedPath(), w.CroppedPath()}
	if cfg.Crop.CenterCrop != nil {
		args = append(args, "--center-crop", formatFloat(*cfg.Crop.CenterCrop))
	} else {
		b := cfg.Crop.Bounds
		args = append(args,
			"--x-min", formatFloat(b.XMin), "--x-max", formatFloat(b.XMax),
			"--y-min", formatFloat(b.YMin), "--y-max", formatFloat(b.YMax),
			"--z-min", formatFloat(b.ZMin), "--z-max", formatFloat(b.ZMax),
		)
	}
	return stage.Stage{
		Name:    StageCrop,
		Bin:     cfg.CropperBin,
		Args:    args,
		Timeout: cfg.StageTimeout,
	}
}

// RenderStage builds the external renderer invocation.
func RenderStage(cfg Config) stage.Stage {
	w := cfg.Workspace
	return stage.Stage{
		Name: StageRender,
		Bin:  cfg.RendererBin,
		Args: []string{
			"--model", w.CroppedPath(),
			"--seconds", strconv.Itoa(cfg.Render.Seconds),
			"--fps", strconv.Itoa(cfg.Render.FPS),
			"--max-points", strconv.Itoa(cfg.Render.MaxPoints),
			"--out", w.VideoPath(),
		},
		Timeout: cfg.StageTimeout,
	}
}

func runStage(ctx context.Context, cfg Config, s stage.Stage, out *Result) stage.Result {
	cfg.Display.StageStart(s.Name)
	res := cfg.Runner.Run(ctx, s)
	cfg.Display.StageResult(res)
	out.Stages = append(out.Stages, res)
	return res
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
