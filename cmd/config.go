package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the merged configuration for the workspace: defaults, overlaid
with .photopipe/config.yaml, overlaid with PHOTOPIPE_* environment
variables.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	w := currentWorkspace()
	settings, err := loadSettings(w)
	if err != nil {
		return err
	}

	fmt.Printf("workspace:      %s\n", w.Root)
	fmt.Printf("config file:    %s\n", w.ConfigPath())
	fmt.Println()
	fmt.Printf("colmapBin:      %s\n", settings.ColmapBin)
	fmt.Printf("cropperBin:     %s\n", settings.CropperBin)
	fmt.Printf("rendererBin:    %s\n", settings.RendererBin)
	fmt.Printf("stageTimeout:   %s\n", settings.StageTimeout)
	fmt.Printf("probeTimeout:   %s\n", settings.ProbeTimeout)
	fmt.Println()
	if settings.Crop.CenterCrop != nil {
		fmt.Printf("crop:           center ratio %.2f\n", *settings.Crop.CenterCrop)
	} else {
		b := settings.Crop.Bounds
		fmt.Printf("crop:           x [%g, %g]  y [%g, %g]  z [%g, %g]\n",
			b.XMin, b.XMax, b.YMin, b.YMax, b.ZMin, b.ZMax)
	}
	fmt.Printf("render:         %d fps, %ds, max %d points\n",
		settings.Render.FPS, settings.Render.Seconds, settings.Render.MaxPoints)
	return nil
}
