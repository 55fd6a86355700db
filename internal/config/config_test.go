package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zbeam/zbeam/internal/errors"
)

const validYAML = `
materials_path: data/materials.yaml
voice_dir: data/voices
database_path: data/feedback.db
generation:
  model: grok-2-latest
  base_url: https://api.x.ai/v1
  api_key_env: GROK_API_KEY
  max_attempts: 3
  acceptance_threshold: 0.33
  learning_target: 70
detector:
  endpoint: https://api.gowinston.ai/v2/ai-content-detection
  api_key_env: WINSTON_API_KEY
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Generation.AcceptanceThreshold != 0.33 {
		t.Errorf("AcceptanceThreshold = %v, want 0.33", cfg.Generation.AcceptanceThreshold)
	}

	// Optional knobs get defaults.
	if cfg.Generation.ExplorationRate != 0.15 {
		t.Errorf("ExplorationRate default = %v, want 0.15", cfg.Generation.ExplorationRate)
	}
	if cfg.Detector.MinLength != 300 {
		t.Errorf("MinLength default = %v, want 300", cfg.Detector.MinLength)
	}
	if cfg.Batch.MaxSize != 5 {
		t.Errorf("Batch.MaxSize default = %v, want 5", cfg.Batch.MaxSize)
	}
}

func TestLoad_MissingRequiredKeys(t *testing.T) {
	tests := []struct {
		name string
		drop string // line prefix to remove from valid config
	}{
		{"missing materials_path", "materials_path:"},
		{"missing database_path", "database_path:"},
		{"missing model", "  model:"},
		{"missing acceptance_threshold", "  acceptance_threshold:"},
		{"missing learning_target", "  learning_target:"},
		{"missing detector endpoint", "  endpoint:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := ""
			for _, line := range strings.Split(validYAML, "\n") {
				if strings.HasPrefix(line, tt.drop) {
					continue
				}
				content += line + "\n"
			}

			_, err := Load(writeConfig(t, content))
			if !errors.Is(err, errors.ErrConfigInvalid) {
				t.Errorf("Load() error = %v, want CONFIG_INVALID", err)
			}
		})
	}
}

func TestLoad_MaxAttemptsExceedsCap(t *testing.T) {
	content := ""
	for _, line := range strings.Split(validYAML, "\n") {
		if line == "  max_attempts: 3" {
			line = "  max_attempts: 9"
		}
		content += line + "\n"
	}

	_, err := Load(writeConfig(t, content))
	if !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("Load() error = %v, want CONFIG_INVALID for attempts above cap", err)
	}
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("Load() error = %v, want CONFIG_INVALID", err)
	}
}
