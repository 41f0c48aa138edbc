package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StateDirName is the per-workspace state directory for config, run
// manifests, and archives.
const StateDirName = ".photopipe"

// File and directory names within a workspace.
const (
	ImagesDirName   = "images"
	DatabaseName    = "database.db"
	SparseDirName   = "sparse"
	DenseDirName    = "dense"
	RendersDirName  = "renders"
	FusedName       = "fused.ply"
	SparseCloudName = "sparse.ply"
	CroppedName     = "cropped.ply"
	VideoName       = "preview.mp4"
	ConfigFileName  = "config.yaml"
)

// imageExtensions are the input formats COLMAP's feature extractor accepts.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".heic": true,
}

// Workspace describes the on-disk layout of one reconstruction run. All
// pipeline stages read and write inside Root; only images/ must exist before
// a run starts.
type Workspace struct {
	Root string
}

// New creates a Workspace rooted at the given directory.
func New(root string) *Workspace {
	return &Workspace{Root: root}
}

func (w *Workspace) ImagesDir() string    { return filepath.Join(w.Root, ImagesDirName) }
func (w *Workspace) DatabasePath() string { return filepath.Join(w.Root, DatabaseName) }
func (w *Workspace) SparseDir() string    { return filepath.Join(w.Root, SparseDirName) }
func (w *Workspace) DenseDir() string     { return filepath.Join(w.Root, DenseDirName) }
func (w *Workspace) RendersDir() string   { return filepath.Join(w.Root, RendersDirName) }

// SparseModelDir is where the incremental mapper writes its first model.
func (w *Workspace) SparseModelDir() string { return filepath.Join(w.SparseDir(), "0") }

// FusedPath is the canonical point-cloud artifact. Both the dense and the
// fallback branch produce it under this exact name so downstream stages never
// care which branch ran.
func (w *Workspace) FusedPath() string { return filepath.Join(w.DenseDir(), FusedName) }

// SparseCloudPath is the intermediate PLY the fallback branch converts the
// sparse model into before copying it to FusedPath.
func (w *Workspace) SparseCloudPath() string { return filepath.Join(w.DenseDir(), SparseCloudName) }

func (w *Workspace) CroppedPath() string { return filepath.Join(w.DenseDir(), CroppedName) }
func (w *Workspace) VideoPath() string   { return filepath.Join(w.RendersDir(), VideoName) }

func (w *Workspace) StateDir() string   { return filepath.Join(w.Root, StateDirName) }
func (w *Workspace) RunsDir() string    { return filepath.Join(w.StateDir(), "runs") }
func (w *Workspace) ArchiveDir() string { return filepath.Join(w.StateDir(), "archive") }
func (w *Workspace) ConfigPath() string { return filepath.Join(w.StateDir(), ConfigFileName) }

// Validate checks the preconditions for starting a pipeline run: the root
// exists and images/ contains at least one image file.
func (w *Workspace) Validate() error {
	info, err := os.Stat(w.Root)
	if err != nil {
		return fmt.Errorf("workspace %s: %w", w.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace %s is not a directory", w.Root)
	}

	n, err := w.CountImages()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no images found in %s", w.ImagesDir())
	}
	return nil
}

// CountImages returns the number of recognized image files in images/.
func (w *Workspace) CountImages() (int, error) {
	entries, err := os.ReadDir(w.ImagesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("images directory %s does not exist", w.ImagesDir())
		}
		return 0, fmt.Errorf("read images directory: %w", err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			count++
		}
	}
	return count, nil
}

// EnsureDirs creates the output directories the pipeline writes into.
// images/ is deliberately excluded: it is an input and must pre-exist.
func (w *Workspace) EnsureDirs() error {
	for _, dir := range []string{w.SparseDir(), w.DenseDir(), w.RendersDir(), w.RunsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// HasDatabase reports whether the feature database exists.
func (w *Workspace) HasDatabase() bool { return fileExists(w.DatabasePath()) }

// HasSparseModel reports whether the mapper produced a model under sparse/0.
func (w *Workspace) HasSparseModel() bool { return dirExists(w.SparseModelDir()) }

// HasFused reports whether the canonical fused point cloud exists.
func (w *Workspace) HasFused() bool { return fileExists(w.FusedPath()) }

// HasCropped reports whether the cropped point cloud exists.
func (w *Workspace) HasCropped() bool { return fileExists(w.CroppedPath()) }

// HasVideo reports whether the rendered preview exists.
func (w *Workspace) HasVideo() bool { return fileExists(w.VideoPath()) }

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
