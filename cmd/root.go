package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/renderlabs/photopipe/internal/config"
	"github.com/renderlabs/photopipe/internal/workspace"
)

var workspaceFlag string

var rootCmd = &cobra.Command{
	Use:   "photopipe",
	Short: "Photogrammetry pipeline driver for COLMAP reconstructions",
	Long: `Photopipe drives a full photogrammetry pipeline over a workspace of
input images: feature extraction, matching, sparse mapping, then either
CUDA dense reconstruction or a sparse fallback, followed by point-cloud
cropping and a preview render.

Workflow:
  photopipe init                  Initialize .photopipe/ in a workspace
  photopipe probe                 Check the engine for CUDA support
  photopipe run                   Run the full pipeline
  photopipe status                Show which artifacts exist
  photopipe archive               Move a previous run's outputs aside

The workspace must contain an images/ directory before running. All other
paths (database.db, sparse/, dense/, renders/) are created by the pipeline.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env for PHOTOPIPE_* overrides; absence is fine.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", ".", "Workspace directory")
}

// currentWorkspace resolves the workspace from the global flag.
func currentWorkspace() *workspace.Workspace {
	return workspace.New(workspaceFlag)
}

// loadSettings reads the workspace config with defaults and env overrides.
func loadSettings(w *workspace.Workspace) (*config.Config, error) {
	return config.Load(w.ConfigPath())
}
