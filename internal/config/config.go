package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zbeam/zbeam/internal/errors"
)

// Config holds application configuration, decoded once from config.yaml and
// validated eagerly. Operational code never re-checks keys at use sites.
type Config struct {
	// MaterialsPath is the YAML materials document (source of truth for items).
	MaterialsPath string `yaml:"materials_path"`

	// VoiceDir contains one YAML voice profile per author.
	VoiceDir string `yaml:"voice_dir"`

	// DatabasePath is the SQLite feedback database file.
	DatabasePath string `yaml:"database_path"`

	Generation GenerationConfig `yaml:"generation"`
	Detector   DetectorConfig   `yaml:"detector"`
	Batch      BatchConfig      `yaml:"batch"`
}

// GenerationConfig configures the generation API and the retry loop.
type GenerationConfig struct {
	// Model is the chat model identifier (e.g. "grok-2-latest", "deepseek-chat").
	Model string `yaml:"model"`

	// BaseURL selects the OpenAI-compatible endpoint (Grok, DeepSeek, ...).
	BaseURL string `yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the provider API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// MaxAttempts bounds the retry loop. The orchestrator may extend by one
	// attempt on a close miss, capped at AbsoluteMaxAttempts.
	MaxAttempts int `yaml:"max_attempts"`

	// AcceptanceThreshold is the base AI-score bar (lower score = more human).
	// The curriculum logic loosens it for under-sampled components.
	AcceptanceThreshold float64 `yaml:"acceptance_threshold"`

	// LearningTarget is the minimum human score (percent) an accepted
	// attempt must also meet. See the dual acceptance gate.
	LearningTarget float64 `yaml:"learning_target"`

	// ExplorationRate is the probability of a random parameter perturbation
	// per attempt. Defaults to 0.15 when unset.
	ExplorationRate float64 `yaml:"exploration_rate"`

	// TimeoutSeconds bounds a single generation API call. Defaults to 120.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// DetectorConfig configures the Winston AI-detector client.
type DetectorConfig struct {
	Endpoint string `yaml:"endpoint"`

	// APIKeyEnv names the environment variable holding the detector API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// MinLength is the shortest text Winston scores reliably; shorter inputs
	// return a too-short sentinel without a network call. Defaults to 300.
	MinLength int `yaml:"min_length"`

	// TimeoutSeconds bounds a single detector call. Defaults to 30.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// BatchConfig configures batch generation.
type BatchConfig struct {
	// MaxSize caps how many materials share one prompt and detector call.
	// Defaults to 5.
	MaxSize int `yaml:"max_size"`
}

// AbsoluteMaxAttempts is the hard cap on attempts regardless of extensions.
const AbsoluteMaxAttempts = 3

// Defaults for optional knobs only. Required keys have no defaults: a missing
// threshold or path is a configuration error, not a silent fallback.
const (
	defaultExplorationRate   = 0.15
	defaultGenTimeoutSecs    = 120
	defaultDetectTimeoutSecs = 30
	defaultDetectorMinLength = 300
	defaultBatchMaxSize      = 5
)

// Load reads and validates configuration from the given YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigInvalid(path, err.Error())
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigInvalid(path, "malformed YAML: "+err.Error())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Generation.ExplorationRate == 0 {
		c.Generation.ExplorationRate = defaultExplorationRate
	}
	if c.Generation.TimeoutSeconds == 0 {
		c.Generation.TimeoutSeconds = defaultGenTimeoutSecs
	}
	if c.Detector.MinLength == 0 {
		c.Detector.MinLength = defaultDetectorMinLength
	}
	if c.Detector.TimeoutSeconds == 0 {
		c.Detector.TimeoutSeconds = defaultDetectTimeoutSecs
	}
	if c.Batch.MaxSize == 0 {
		c.Batch.MaxSize = defaultBatchMaxSize
	}
}

// Validate fails fast on missing required keys.
func (c *Config) Validate() error {
	if c.MaterialsPath == "" {
		return errors.NewConfigInvalid("materials_path", "required")
	}
	if c.VoiceDir == "" {
		return errors.NewConfigInvalid("voice_dir", "required")
	}
	if c.DatabasePath == "" {
		return errors.NewConfigInvalid("database_path", "required")
	}
	if c.Generation.Model == "" {
		return errors.NewConfigInvalid("generation.model", "required")
	}
	if c.Generation.BaseURL == "" {
		return errors.NewConfigInvalid("generation.base_url", "required")
	}
	if c.Generation.APIKeyEnv == "" {
		return errors.NewConfigInvalid("generation.api_key_env", "required")
	}
	if c.Generation.MaxAttempts < 1 {
		return errors.NewConfigInvalid("generation.max_attempts", "must be >= 1")
	}
	if c.Generation.MaxAttempts > AbsoluteMaxAttempts {
		return errors.NewConfigInvalid("generation.max_attempts", "exceeds absolute cap of 3")
	}
	if c.Generation.AcceptanceThreshold <= 0 || c.Generation.AcceptanceThreshold >= 1 {
		return errors.NewConfigInvalid("generation.acceptance_threshold", "must be in (0, 1)")
	}
	if c.Generation.LearningTarget <= 0 || c.Generation.LearningTarget > 100 {
		return errors.NewConfigInvalid("generation.learning_target", "must be a percentage in (0, 100]")
	}
	if c.Generation.ExplorationRate < 0 || c.Generation.ExplorationRate > 1 {
		return errors.NewConfigInvalid("generation.exploration_rate", "must be in [0, 1]")
	}
	if c.Detector.Endpoint == "" {
		return errors.NewConfigInvalid("detector.endpoint", "required")
	}
	if c.Detector.APIKeyEnv == "" {
		return errors.NewConfigInvalid("detector.api_key_env", "required")
	}
	if c.Batch.MaxSize < 1 {
		return errors.NewConfigInvalid("batch.max_size", "must be >= 1")
	}
	return nil
}
