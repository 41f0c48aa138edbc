// Package colmap builds the stage invocations for the external COLMAP
// reconstruction engine and probes its build capabilities.
package colmap

import (
	"time"

	"github.com/renderlabs/photopipe/internal/stage"
	"github.com/renderlabs/photopipe/internal/workspace"
)

// Stage names, matching the engine subcommands.
const (
	StageFeatureExtractor  = "feature_extractor"
	StageExhaustiveMatcher = "exhaustive_matcher"
	StageMapper            = "mapper"
	StageImageUndistorter  = "image_undistorter"
	StagePatchMatchStereo  = "patch_match_stereo"
	StageStereoFusion      = "stereo_fusion"
	StageModelConverter    = "model_converter"
)

// Engine is a handle to the COLMAP executable.
type Engine struct {
	Bin          string
	StageTimeout time.Duration
}

// New creates an Engine. A zero stageTimeout disables per-stage timeouts.
func New(bin string, stageTimeout time.Duration) *Engine {
	return &Engine{Bin: bin, StageTimeout: stageTimeout}
}

func (e *Engine) stage(name string, args ...string) stage.Stage {
	return stage.Stage{
		Name:    name,
		Bin:     e.Bin,
		Args:    append([]string{name}, args...),
		Timeout: e.StageTimeout,
	}
}

// FeatureExtractor detects keypoints in every image and writes them to the
// feature database.
func (e *Engine) FeatureExtractor(w *workspace.Workspace) stage.Stage {
	return e.stage(StageFeatureExtractor,
		"--database_path", w.DatabasePath(),
		"--image_path", w.ImagesDir(),
	)
}

// ExhaustiveMatcher matches features across all image pairs in the database.
func (e *Engine) ExhaustiveMatcher(w *workspace.Workspace) stage.Stage {
	return e.stage(StageExhaustiveMatcher,
		"--database_path", w.DatabasePath(),
	)
}

// Mapper runs incremental bundle adjustment, producing the sparse model
// under sparse/0.
func (e *Engine) Mapper(w *workspace.Workspace) stage.Stage {
	return e.stage(StageMapper,
		"--database_path", w.DatabasePath(),
		"--image_path", w.ImagesDir(),
		"--output_path", w.SparseDir(),
	)
}

// ImageUndistorter prepares the dense workspace from the sparse model.
func (e *Engine) ImageUndistorter(w *workspace.Workspace) stage.Stage {
	return e.stage(StageImageUndistorter,
		"--image_path", w.ImagesDir(),
		"--input_path", w.SparseModelDir(),
		"--output_path", w.DenseDir(),
		"--output_type", "COLMAP",
	)
}

// PatchMatchStereo estimates per-image depth maps. Requires a CUDA build.
func (e *Engine) PatchMatchStereo(w *workspace.Workspace) stage.Stage {
	return e.stage(StagePatchMatchStereo,
		"--workspace_path", w.DenseDir(),
		"--workspace_format", "COLMAP",
		"--PatchMatchStereo.geom_consistency", "true",
	)
}

// StereoFusion fuses the depth maps into the dense point cloud at the
// canonical fused path.
func (e *Engine) StereoFusion(w *workspace.Workspace) stage.Stage {
	return e.stage(StageStereoFusion,
		"--workspace_path", w.DenseDir(),
		"--workspace_format", "COLMAP",
		"--input_type", "geometric",
		"--output_path", w.FusedPath(),
	)
}

// ModelConverter exports the sparse model as a PLY point cloud. The fallback
// branch uses this when dense reconstruction is unavailable.
func (e *Engine) ModelConverter(w *workspace.Workspace) stage.Stage {
	return e.stage(StageModelConverter,
		"--input_path", w.SparseModelDir(),
		"--output_path", w.SparseCloudPath(),
		"--output_type", "PLY",
	)
}
