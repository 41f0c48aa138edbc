package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renderlabs/photopipe/internal/archive"
)

var archiveNameFlag string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive the previous run's outputs",
	Long: `Move database.db, sparse/, dense/, and renders/ into
.photopipe/archive/<date>-<name>/ so the next run starts from clean state.

The pipeline never deletes stale outputs itself: re-running over a partially
failed workspace can mix artifacts from different runs. Archive first when
inputs have changed.

Never touches: images/, .photopipe/config.yaml, run manifests.`,
	RunE: runArchive,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs",
	RunE:  runArchiveList,
}

func init() {
	archiveCmd.Flags().StringVar(&archiveNameFlag, "name", "run", "Archive name")
	archiveCmd.AddCommand(archiveListCmd)
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	dir, err := archive.Create(currentWorkspace(), archiveNameFlag, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("archived to %s\n", dir)
	return nil
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	names, err := archive.List(currentWorkspace())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no archives")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
