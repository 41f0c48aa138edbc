package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/renderlabs/photopipe/internal/controller"
	"github.com/renderlabs/photopipe/internal/display"
	"github.com/renderlabs/photopipe/internal/stage"
)

var (
	cpuOnlyFlag bool
	verboseFlag bool
	timeoutFlag time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full reconstruction pipeline",
	Long: `Run the full pipeline against the workspace.

Feature extraction, matching, and mapping always run; a failure in any of
them aborts the run. When the engine is a CUDA build the dense path
(undistortion, stereo depth, fusion) produces dense/fused.ply; otherwise, or
when the dense path fails, the sparse model is converted and installed at
the same location. Cropping and rendering follow when their inputs exist.

The exit code is zero as long as sparse reconstruction succeeded, even if
later stages were skipped.

Examples:
  photopipe run                        # Run with defaults
  photopipe run -w ~/scans/statue      # Explicit workspace
  photopipe run --cpu-only             # Skip the probe and dense path
  photopipe run --timeout 30m -v       # Shorter stage timeout, tool output
`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&cpuOnlyFlag, "cpu-only", false, "Skip CUDA probe and dense reconstruction")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Stream external tool output")
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Per-stage timeout (overrides config)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	w := currentWorkspace()
	settings, err := loadSettings(w)
	if err != nil {
		return err
	}
	if timeoutFlag > 0 {
		settings.StageTimeout = timeoutFlag
	}

	var toolLog io.Writer
	if verboseFlag {
		toolLog = os.Stdout
	}

	c := controller.New(controller.Config{
		Workspace:     w,
		Settings:      settings,
		Runner:        stage.NewExecRunner(toolLog),
		Display:       display.New(os.Stdout),
		ForceFallback: cpuOnlyFlag,
	})

	if _, err := c.Run(context.Background()); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return nil
}
