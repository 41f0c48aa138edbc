package controller

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/renderlabs/photopipe/internal/featuredb"
	"github.com/renderlabs/photopipe/internal/stage"
)

// StageRecord is one stage outcome as persisted in the manifest.
type StageRecord struct {
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"durationMs"`
	TimedOut   bool   `json:"timedOut,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Artifact is one workspace output in the final inventory.
type Artifact struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Points int    `json:"points,omitempty"`
}

// Manifest is the persisted record of one pipeline run, written to
// .photopipe/runs/<id>.json.
type Manifest struct {
	RunID          string           `json:"runId"`
	Workspace      string           `json:"workspace"`
	StartedAt      time.Time        `json:"startedAt"`
	FinishedAt     time.Time        `json:"finishedAt"`
	State          string           `json:"state,omitempty"`
	Mode           string           `json:"mode,omitempty"`
	Accelerated    bool             `json:"accelerated"`
	DenseAttempted bool             `json:"denseAttempted"`
	Stages         []StageRecord    `json:"stages,omitempty"`
	Artifacts      []Artifact       `json:"artifacts,omitempty"`
	Skipped        []string         `json:"skipped,omitempty"`
	FeatureStats   *featuredb.Stats `json:"featureStats,omitempty"`
	Error          string           `json:"error,omitempty"`
}

func (m *Manifest) appendStages(results []stage.Result) {
	for _, res := range results {
		rec := StageRecord{
			Name:       res.Stage,
			Success:    res.Success,
			DurationMs: res.Duration.Milliseconds(),
			TimedOut:   res.TimedOut,
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		m.Stages = append(m.Stages, rec)
	}
}

func (m *Manifest) path(dir string) string {
	return filepath.Join(dir, m.RunID+".json")
}

// save writes the manifest atomically: temp file first, then rename.
func (m *Manifest) save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create runs directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.path(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.path(dir)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// LoadManifest reads a previously written manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}
