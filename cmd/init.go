package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renderlabs/photopipe/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .photopipe/ in the workspace",
	Long: `Initialize the workspace state directory.

Creates:
  .photopipe/
    config.yaml    # Executable paths, timeouts, crop bounds, render settings
    archive/       # Archived runs
    runs/          # Run manifests

Put your input images in images/ and run 'photopipe run'.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	w := currentWorkspace()

	if _, err := os.Stat(w.StateDir()); err == nil {
		return fmt.Errorf("%s already exists", w.StateDir())
	}

	for _, dir := range []string{w.ArchiveDir(), w.RunsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}
	}

	if err := os.WriteFile(w.ConfigPath(), []byte(config.DefaultYAML), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("initialized %s\n", w.StateDir())
	if _, err := os.Stat(w.ImagesDir()); os.IsNotExist(err) {
		fmt.Printf("note: %s does not exist yet — add input images before running\n", w.ImagesDir())
	}
	return nil
}
