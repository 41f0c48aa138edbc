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

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the preview video",
	Long: `Run only the preview render stage against an existing
dense/cropped.ply. Cropping is required first: the crop bounds the asset
size fed to the renderer.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	w := currentWorkspace()
	settings, err := loadSettings(w)
	if err != nil {
		return err
	}
	if !w.HasCropped() {
		return fmt.Errorf("nothing to render: %s does not exist (run 'photopipe crop' first)", w.CroppedPath())
	}

	d := display.New(os.Stdout)
	cfg := postprocess.Config{
		Workspace:    w,
		RendererBin:  settings.RendererBin,
		Render:       settings.Render,
		StageTimeout: settings.StageTimeout,
	}

	s := postprocess.RenderStage(cfg)
	d.StageStart(s.Name)
	res := stage.NewExecRunner(os.Stdout).Run(context.Background(), s)
	d.StageResult(res)

	if !res.Success {
		return fmt.Errorf("render failed: %w", res.Err)
	}
	d.Infof("wrote %s", w.VideoPath())
	return nil
}
