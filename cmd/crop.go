package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renderlabs/photopipe/internal/display"
	"github.com/renderlabs/photopipe/internal/postprocess"
	"github.com/renderlabs/photopipe/internal/stage"
)

var cropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Crop the fused point cloud",
	Long: `Run only the spatial crop stage against an existing dense/fused.ply,
using the bounds (or centerCrop ratio) from the workspace config. Useful for
re-cropping after adjusting the bounds without re-running reconstruction.`,
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)
}

func runCrop(cmd *cobra.Command, args []string) error {
	w := currentWorkspace()
	settings, err := loadSettings(w)
	if err != nil {
		return err
	}
	if !w.HasFused() {
		return fmt.Errorf("nothing to crop: %s does not exist", w.FusedPath())
	}

	d := display.New(os.Stdout)
	cfg := postprocess.Config{
		Workspace:    w,
		CropperBin:   settings.CropperBin,
		Crop:         settings.Crop,
		StageTimeout: settings.StageTimeout,
	}

	s := postprocess.CropStage(cfg)
	d.StageStart(s.Name)
	res := stage.NewExecRunner(os.Stdout).Run(context.Background(), s)
	d.StageResult(res)

	if !res.Success {
		return fmt.Errorf("crop failed: %w", res.Err)
	}
	if !w.HasCropped() {
		return fmt.Errorf("cropper finished but %s is missing", w.CroppedPath())
	}
	d.Infof("wrote %s", w.CroppedPath())
	return nil
}
