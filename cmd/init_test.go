package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/renderlabs/photopipe/internal/workspace"
)

func TestRunInit_CreatesStateDir(t *testing.T) {
	dir := t.TempDir()
	workspaceFlag = dir
	t.Cleanup(func() { workspaceFlag = "." })

	if err := runInit(initCmd, nil); err != nil {
		t.Fatal(err)
	}

	w := workspace.New(dir)
	if _, err := os.Stat(w.ConfigPath()); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
	for _, d := range []string{w.ArchiveDir(), w.RunsDir()} {
		if _, err := os.Stat(d); err != nil {
			t.Errorf("%s not created: %v", d, err)
		}
	}

	// Second init must refuse to clobber existing state.
	if err := runInit(initCmd, nil); err == nil {
		t.Error("expected error on repeated init")
	}
}

func TestRunInit_ConfigLoads(t *testing.T) {
	dir := t.TempDir()
	workspaceFlag = dir
	t.Cleanup(func() { workspaceFlag = "." })

	if err := runInit(initCmd, nil); err != nil {
		t.Fatal(err)
	}

	w := workspace.New(dir)
	settings, err := loadSettings(w)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if settings.ColmapBin == "" {
		t.Error("generated config has empty colmapBin")
	}
	if filepath.Dir(w.ConfigPath()) != w.StateDir() {
		t.Errorf("config path %s not inside state dir", w.ConfigPath())
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{812, "812"},
		{1500, "1.5k"},
		{50000, "50.0k"},
		{2300000, "2.3M"},
	}
	for _, tt := range tests {
		if got := formatCount(tt.n); got != tt.want {
			t.Errorf("formatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
