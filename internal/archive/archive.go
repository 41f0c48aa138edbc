// Package archive moves a previous run's outputs out of the way so a
// re-run starts from clean state. The pipeline itself never deletes stale
// artifacts; archiving is the explicit operation for that.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/renderlabs/photopipe/internal/workspace"
)

// outputEntries are the workspace entries produced by a run. images/ and
// .photopipe/ are inputs and state and are never archived.
func outputEntries(w *workspace.Workspace) []string {
	return []string{
		w.DatabasePath(),
		w.SparseDir(),
		w.DenseDir(),
		w.RendersDir(),
	}
}

// Create moves all existing run outputs into
// .photopipe/archive/<date>-<name>/ and returns the archive directory. It
// returns an error when there are no outputs to archive.
func Create(w *workspace.Workspace, name string, out io.Writer) (string, error) {
	entries := outputEntries(w)

	found := false
	for _, e := range entries {
		if pathExists(e) {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("no run outputs to archive in %s", w.Root)
	}

	datePart := time.Now().Format("2006-01-02")
	archiveDir := resolveCollision(filepath.Join(w.ArchiveDir(), fmt.Sprintf("%s-%s", datePart, name)))

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	moved := 0
	for _, e := range entries {
		if !pathExists(e) {
			continue
		}
		dst := filepath.Join(archiveDir, filepath.Base(e))
		if err := movePath(e, dst); err != nil {
			return "", fmt.Errorf("archive %s: %w", e, err)
		}
		if out != nil {
			fmt.Fprintf(out, "archived %s\n", filepath.Base(e))
		}
		moved++
	}

	if out != nil {
		fmt.Fprintf(out, "moved %d entries to %s\n", moved, archiveDir)
	}
	return archiveDir, nil
}

// List returns the archive directory names, newest first.
func List(w *workspace.Workspace) ([]string, error) {
	entries, err := os.ReadDir(w.ArchiveDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].IsDir() {
			names = append(names, entries[i].Name())
		}
	}
	return names, nil
}

// resolveCollision appends -2, -3, ... until the directory name is free.
func resolveCollision(dir string) string {
	if !pathExists(dir) {
		return dir
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", dir, i)
		if !pathExists(candidate) {
			return candidate
		}
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
