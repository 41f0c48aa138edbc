package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renderlabs/photopipe/internal/colmap"
	"github.com/renderlabs/photopipe/internal/stage"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the reconstruction engine for CUDA support",
	Long: `Probe the configured COLMAP executable and report whether it is a
CUDA-enabled build. The probe inspects the engine's help banner; it does not
verify that a GPU is actually present, so a positive result still allows the
dense path to fail and degrade at run time.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(currentWorkspace())
	if err != nil {
		return err
	}

	accelerated := colmap.DetectCUDA(context.Background(), stage.NewExecRunner(nil), settings.ColmapBin, settings.ProbeTimeout)
	if accelerated {
		fmt.Printf("%s: CUDA-enabled build — dense reconstruction available\n", settings.ColmapBin)
	} else {
		fmt.Printf("%s: no CUDA support — runs will use the sparse fallback\n", settings.ColmapBin)
	}
	return nil
}
