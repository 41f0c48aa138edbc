package colmap

import (
	"context"
	"strings"
	"time"

	"github.com/renderlabs/photopipe/internal/stage"
)

// StageProbe is the stage name used for the capability probe.
const StageProbe = "probe"

// CUDA build markers in the engine banner. COLMAP prints either
// "... with CUDA" or "... without CUDA" in its help output.
const (
	cudaMarker    = "with cuda"
	cudaNegMarker = "without cuda"
)

// DetectCUDA reports whether the engine self-reports a CUDA-enabled build.
// It runs the engine's help output through the given runner and scans for
// the CUDA marker. Any probe failure, including a missing binary, means
// "not accelerated" — never an error. The result is advisory: the dense
// stages can still fail at runtime (no device, driver mismatch), and the
// pipeline handles that separately.
func DetectCUDA(ctx context.Context, r stage.Runner, bin string, timeout time.Duration) bool {
	res := r.Run(ctx, stage.Stage{
		Name:    StageProbe,
		Bin:     bin,
		Args:    []string{"help"},
		Timeout: timeout,
	})

	// Some builds print the banner to stderr and exit nonzero for "help";
	// inspect whatever came back regardless of exit status.
	banner := strings.ToLower(res.Output + "\n" + res.Stderr)
	if strings.Contains(banner, cudaNegMarker) {
		return false
	}
	return strings.Contains(banner, cudaMarker)
}
