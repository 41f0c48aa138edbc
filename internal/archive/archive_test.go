package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/renderlabs/photopipe/internal/workspace"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_MovesOutputsOnly(t *testing.T) {
	w := workspace.New(t.TempDir())
	touch(t, filepath.Join(w.ImagesDir(), "a.jpg"))
	touch(t, w.DatabasePath())
	touch(t, filepath.Join(w.SparseModelDir(), "points3D.bin"))
	touch(t, w.FusedPath())
	touch(t, w.ConfigPath())

	var out bytes.Buffer
	dir, err := Create(w, "scan1", &out)
	if err != nil {
		t.Fatal(err)
	}

	// Outputs moved.
	if w.HasDatabase() || w.HasSparseModel() || w.HasFused() {
		t.Error("run outputs still present in workspace")
	}
	for _, name := range []string{"database.db", "sparse", "dense"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not in archive: %v", name, err)
		}
	}

	// Inputs and state untouched.
	if _, err := os.Stat(filepath.Join(w.ImagesDir(), "a.jpg")); err != nil {
		t.Error("images/ must never be archived")
	}
	if _, err := os.Stat(w.ConfigPath()); err != nil {
		t.Error("config must never be archived")
	}

	if !strings.Contains(out.String(), dir) {
		t.Errorf("output %q does not mention archive dir", out.String())
	}
}

func TestCreate_NothingToArchive(t *testing.T) {
	w := workspace.New(t.TempDir())
	touch(t, filepath.Join(w.ImagesDir(), "a.jpg"))

	if _, err := Create(w, "scan1", nil); err == nil {
		t.Error("expected error when no outputs exist")
	}
}

func TestCreate_NameCollision(t *testing.T) {
	w := workspace.New(t.TempDir())

	touch(t, w.DatabasePath())
	first, err := Create(w, "scan", nil)
	if err != nil {
		t.Fatal(err)
	}

	touch(t, w.DatabasePath())
	second, err := Create(w, "scan", nil)
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Errorf("collision not resolved: both archives at %s", first)
	}
	if !strings.HasSuffix(second, "-2") {
		t.Errorf("second archive = %s, want -2 suffix", second)
	}
}

func TestList(t *testing.T) {
	w := workspace.New(t.TempDir())

	names, err := List(w)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty for fresh workspace", names)
	}

	touch(t, w.DatabasePath())
	if _, err := Create(w, "one", nil); err != nil {
		t.Fatal(err)
	}
	touch(t, w.DatabasePath())
	if _, err := Create(w, "two", nil); err != nil {
		t.Fatal(err)
	}

	names, err = List(w)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("List() = %v, want 2 entries", names)
	}
}

func TestMovePath_Directory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "dense")
	touch(t, filepath.Join(src, "fused.ply"))
	touch(t, filepath.Join(src, "stereo", "depth_maps", "d0.bin"))

	dst := filepath.Join(t.TempDir(), "moved")
	if err := movePath(src, dst); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dst, "stereo", "depth_maps", "d0.bin")); err != nil {
		t.Errorf("nested file not moved: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still exists after move")
	}
}
