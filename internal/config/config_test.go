package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ColmapBin != DefaultColmapBin {
		t.Errorf("ColmapBin = %q, want %q", cfg.ColmapBin, DefaultColmapBin)
	}
	if cfg.StageTimeout != DefaultStageTimeout {
		t.Errorf("StageTimeout = %v, want %v", cfg.StageTimeout, DefaultStageTimeout)
	}
	if cfg.Render.FPS != DefaultRenderFPS || cfg.Render.Seconds != DefaultRenderSeconds {
		t.Errorf("render defaults not applied: %+v", cfg.Render)
	}
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	path := writeConfig(t, `
colmapBin: /opt/colmap/bin/colmap
stageTimeout: 45m
crop:
  xMin: -1.5
  xMax: 1.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ColmapBin != "/opt/colmap/bin/colmap" {
		t.Errorf("ColmapBin = %q", cfg.ColmapBin)
	}
	if cfg.StageTimeout != 45*time.Minute {
		t.Errorf("StageTimeout = %v, want 45m", cfg.StageTimeout)
	}
	if cfg.Crop.Bounds.XMin != -1.5 || cfg.Crop.Bounds.XMax != 1.5 {
		t.Errorf("crop X bounds = %v", cfg.Crop.Bounds)
	}
	// Untouched axes keep defaults.
	if cfg.Crop.Bounds.YMin != -5 || cfg.Crop.Bounds.YMax != 5 {
		t.Errorf("crop Y bounds = %v, want defaults", cfg.Crop.Bounds)
	}
	if cfg.RendererBin != DefaultRendererBin {
		t.Errorf("RendererBin = %q, want default", cfg.RendererBin)
	}
}

func TestLoad_CenterCrop(t *testing.T) {
	path := writeConfig(t, "crop:\n  centerCrop: 0.8\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Crop.CenterCrop == nil || *cfg.Crop.CenterCrop != 0.8 {
		t.Errorf("CenterCrop = %v, want 0.8", cfg.Crop.CenterCrop)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad duration", "stageTimeout: soon\n"},
		{"inverted bounds", "crop:\n  xMin: 2.0\n  xMax: -2.0\n"},
		{"zero fps", "render:\n  fps: 0\n"},
		{"center crop out of range", "crop:\n  centerCrop: 1.5\n"},
		{"empty colmap bin", "colmapBin: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "colmapBin: from-file\n")
	t.Setenv(EnvColmapBin, "from-env")
	t.Setenv(EnvStageTimeout, "10m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ColmapBin != "from-env" {
		t.Errorf("ColmapBin = %q, want env override", cfg.ColmapBin)
	}
	if cfg.StageTimeout != 10*time.Minute {
		t.Errorf("StageTimeout = %v, want 10m", cfg.StageTimeout)
	}
}

func TestDefaultYAML_RoundTrips(t *testing.T) {
	path := writeConfig(t, DefaultYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("DefaultYAML does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultYAML invalid: %v", err)
	}
}
