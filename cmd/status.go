package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renderlabs/photopipe/internal/display"
	"github.com/renderlabs/photopipe/internal/featuredb"
	"github.com/renderlabs/photopipe/internal/ply"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which pipeline artifacts exist",
	Long: `Inventory the workspace: input images, feature database contents,
sparse model, fused and cropped clouds (with point counts), and the preview
video.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	w := currentWorkspace()
	d := display.New(os.Stdout)

	d.Header("workspace " + w.Root)

	if n, err := w.CountImages(); err != nil {
		d.Warnf("%v", err)
	} else {
		d.Infof("input images: %d", n)
	}

	if w.HasDatabase() {
		if stats, err := featuredb.ReadStats(w.DatabasePath()); err == nil {
			d.Infof("feature database: %s", stats)
		} else {
			d.Warnf("feature database unreadable: %v", err)
		}
	} else {
		d.Infof("feature database: not created")
	}

	reportDir(d, "sparse model", w.SparseModelDir(), w.HasSparseModel())
	reportCloud(d, "fused cloud", w.FusedPath(), w.HasFused())
	reportCloud(d, "cropped cloud", w.CroppedPath(), w.HasCropped())
	reportDir(d, "preview video", w.VideoPath(), w.HasVideo())
	return nil
}

func reportDir(d *display.Display, name, path string, exists bool) {
	if exists {
		d.Infof("%s: %s", name, path)
	} else {
		d.Infof("%s: not created", name)
	}
}

func reportCloud(d *display.Display, name, path string, exists bool) {
	if !exists {
		d.Infof("%s: not created", name)
		return
	}
	if n, err := ply.CountVertices(path); err == nil {
		d.Infof("%s: %s (%s points)", name, path, formatCount(n))
	} else {
		d.Warnf("%s: %s (unreadable header: %v)", name, path, err)
	}
}

func formatCount(n int) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}
