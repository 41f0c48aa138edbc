// Package config loads pipeline configuration from the workspace's
// .photopipe/config.yaml, with environment overrides. The merged Config is
// passed explicitly into the controller so the pipeline logic itself never
// reads ambient state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultColmapBin   = "colmap"
	DefaultCropperBin  = "crop_ply"
	DefaultRendererBin = "ply_render"

	DefaultStageTimeout = 2 * time.Hour
	DefaultProbeTimeout = 30 * time.Second

	DefaultRenderFPS       = 30
	DefaultRenderSeconds   = 12
	DefaultRenderMaxPoints = 50000
)

// Environment variable overrides, applied on top of the config file.
const (
	EnvColmapBin    = "PHOTOPIPE_COLMAP_BIN"
	EnvCropperBin   = "PHOTOPIPE_CROPPER_BIN"
	EnvRendererBin  = "PHOTOPIPE_RENDERER_BIN"
	EnvStageTimeout = "PHOTOPIPE_STAGE_TIMEOUT"
)

// CropBounds is the axis-aligned box passed to the external cropper.
type CropBounds struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

// CropConfig controls the spatial crop stage. When CenterCrop is set the
// cropper is invoked with --center-crop instead of explicit bounds.
type CropConfig struct {
	Bounds     CropBounds
	CenterCrop *float64
}

// RenderConfig controls the preview render stage.
type RenderConfig struct {
	FPS       int
	Seconds   int
	MaxPoints int
}

// Config is the merged, effective configuration for a pipeline run.
type Config struct {
	ColmapBin   string
	CropperBin  string
	RendererBin string

	StageTimeout time.Duration
	ProbeTimeout time.Duration

	Crop   CropConfig
	Render RenderConfig
}

// rawConfig mirrors the YAML file. Pointer fields distinguish "not set"
// (nil) from an explicit zero value.
type rawConfig struct {
	ColmapBin   *string `yaml:"colmapBin"`
	CropperBin  *string `yaml:"cropperBin"`
	RendererBin *string `yaml:"rendererBin"`

	StageTimeout *string `yaml:"stageTimeout"`
	ProbeTimeout *string `yaml:"probeTimeout"`

	Crop struct {
		XMin       *float64 `yaml:"xMin"`
		XMax       *float64 `yaml:"xMax"`
		YMin       *float64 `yaml:"yMin"`
		YMax       *float64 `yaml:"yMax"`
		ZMin       *float64 `yaml:"zMin"`
		ZMax       *float64 `yaml:"zMax"`
		CenterCrop *float64 `yaml:"centerCrop"`
	} `yaml:"crop"`

	Render struct {
		FPS       *int `yaml:"fps"`
		Seconds   *int `yaml:"seconds"`
		MaxPoints *int `yaml:"maxPoints"`
	} `yaml:"render"`
}

// Default returns the built-in configuration. The default crop box is a
// generous region around the model origin; real scenes set their own bounds.
func Default() *Config {
	return &Config{
		ColmapBin:    DefaultColmapBin,
		CropperBin:   DefaultCropperBin,
		RendererBin:  DefaultRendererBin,
		StageTimeout: DefaultStageTimeout,
		ProbeTimeout: DefaultProbeTimeout,
		Crop: CropConfig{
			Bounds: CropBounds{
				XMin: -5, XMax: 5,
				YMin: -5, YMax: 5,
				ZMin: -5, ZMax: 5,
			},
		},
		Render: RenderConfig{
			FPS:       DefaultRenderFPS,
			Seconds:   DefaultRenderSeconds,
			MaxPoints: DefaultRenderMaxPoints,
		},
	}
}

// Load reads the config file at path and merges it over the defaults, then
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := merge(cfg, &raw); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

func merge(cfg *Config, raw *rawConfig) error {
	if raw.ColmapBin != nil {
		cfg.ColmapBin = *raw.ColmapBin
	}
	if raw.CropperBin != nil {
		cfg.CropperBin = *raw.CropperBin
	}
	if raw.RendererBin != nil {
		cfg.RendererBin = *raw.RendererBin
	}

	if raw.StageTimeout != nil {
		d, err := time.ParseDuration(*raw.StageTimeout)
		if err != nil {
			return fmt.Errorf("stageTimeout: %w", err)
		}
		cfg.StageTimeout = d
	}
	if raw.ProbeTimeout != nil {
		d, err := time.ParseDuration(*raw.ProbeTimeout)
		if err != nil {
			return fmt.Errorf("probeTimeout: %w", err)
		}
		cfg.ProbeTimeout = d
	}

	b := &cfg.Crop.Bounds
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{raw.Crop.XMin, &b.XMin}, {raw.Crop.XMax, &b.XMax},
		{raw.Crop.YMin, &b.YMin}, {raw.Crop.YMax, &b.YMax},
		{raw.Crop.ZMin, &b.ZMin}, {raw.Crop.ZMax, &b.ZMax},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if raw.Crop.CenterCrop != nil {
		cfg.Crop.CenterCrop = raw.Crop.CenterCrop
	}

	if raw.Render.FPS != nil {
		cfg.Render.FPS = *raw.Render.FPS
	}
	if raw.Render.Seconds != nil {
		cfg.Render.Seconds = *raw.Render.Seconds
	}
	if raw.Render.MaxPoints != nil {
		cfg.Render.MaxPoints = *raw.Render.MaxPoints
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvColmapBin); v != "" {
		cfg.ColmapBin = v
	}
	if v := os.Getenv(EnvCropperBin); v != "" {
		cfg.CropperBin = v
	}
	if v := os.Getenv(EnvRendererBin); v != "" {
		cfg.RendererBin = v
	}
	if v := os.Getenv(EnvStageTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StageTimeout = d
		}
	}
}

// Validate checks the merged configuration for values the pipeline cannot
// run with.
func (c *Config) Validate() error {
	if c.ColmapBin == "" {
		return fmt.Errorf("colmapBin must not be empty")
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("stageTimeout must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probeTimeout must be positive")
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render.fps must be positive")
	}
	if c.Render.Seconds <= 0 {
		return fmt.Errorf("render.seconds must be positive")
	}
	b := c.Crop.Bounds
	if b.XMin >= b.XMax || b.YMin >= b.YMax || b.ZMin >= b.ZMax {
		return fmt.Errorf("crop bounds must satisfy min < max on every axis")
	}
	if c.Crop.CenterCrop != nil && (*c.Crop.CenterCrop <= 0 || *c.Crop.CenterCrop > 1) {
		return fmt.Errorf("crop.centerCrop must be in (0, 1]")
	}
	return nil
}

// DefaultYAML is the config file written by `photopipe init`.
const DefaultYAML = `# photopipe configuration
#
# Executables. Each may also be overridden with PHOTOPIPE_COLMAP_BIN,
# PHOTOPIPE_CROPPER_BIN, PHOTOPIPE_RENDERER_BIN.
colmapBin: colmap
cropperBin: crop_ply
rendererBin: ply_render

# Per-stage timeout. A stage that exceeds it is treated as failed.
stageTimeout: 2h
probeTimeout: 30s

# Spatial crop region for post-processing. Either an explicit box, or set
# centerCrop to a ratio (e.g. 0.8) to crop around the model center instead.
crop:
  xMin: -5.0
  xMax: 5.0
  yMin: -5.0
  yMax: 5.0
  zMin: -5.0
  zMax: 5.0
  # centerCrop: 0.8

# Preview render parameters.
render:
  fps: 30
  seconds: 12
  maxPoints: 50000
`
