// Package config handles the SpecForge project configuration file.
//
// Configuration lives at <project>/.specforge/config.json and is loaded
// through an explicit Store interface — components receive a *Config from
// the composition root instead of reading ambient global state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Dir is the per-project directory holding config, database, and
	// rendered feature files.
	Dir = ".specforge"
	// FileName is the config filename inside Dir.
	FileName = "config.json"
	// FeaturesDir is the subdirectory under Dir where feature files are
	// materialized.
	FeaturesDir = "features"
)

// Strategy names recognized by deduplication.default_strategy.
const (
	StrategyMerge   = "merge"
	StrategyReplace = "replace"
	StrategySkip    = "skip"
	StrategyPrompt  = "prompt"
)

// validStrategies is the set of allowed duplicate-handling strategies.
var validStrategies = map[string]bool{
	StrategyMerge:   true,
	StrategyReplace: true,
	StrategySkip:    true,
	StrategyPrompt:  true,
}

// ValidateStrategy returns an error if the strategy is not recognized.
func ValidateStrategy(s string) error {
	if !validStrategies[s] {
		return fmt.Errorf("invalid strategy %q: must be one of: merge, replace, skip, prompt", s)
	}
	return nil
}

// Deduplication holds the duplicate-detection policy knobs.
type Deduplication struct {
	Enabled                 bool    `json:"enabled"`
	SimilarityThreshold     float64 `json:"similarity_threshold"`
	DefaultStrategy         string  `json:"default_strategy"`
	AutoMergeThreshold      float64 `json:"auto_merge_threshold"`
	TaskSimilarityThreshold float64 `json:"task_similarity_threshold"`
}

// Config is the root configuration persisted as config.json.
type Config struct {
	Version       string        `json:"version"`
	Deduplication Deduplication `json:"deduplication"`
}

// Default returns the configuration used when no config file exists.
// The threshold constants are heuristic defaults, not precision
// requirements — all of them are overridable in config.json.
func Default() *Config {
	return &Config{
		Version: "1",
		Deduplication: Deduplication{
			Enabled:                 true,
			SimilarityThreshold:     0.8,
			DefaultStrategy:         StrategyPrompt,
			AutoMergeThreshold:      0.95,
			TaskSimilarityThreshold: 0.9,
		},
	}
}

// Validate checks threshold ranges and the strategy enum.
func (c *Config) Validate() error {
	d := c.Deduplication
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"deduplication.similarity_threshold", d.SimilarityThreshold},
		{"deduplication.auto_merge_threshold", d.AutoMergeThreshold},
		{"deduplication.task_similarity_threshold", d.TaskSimilarityThreshold},
	} {
		if th.value < 0 || th.value > 1 {
			return fmt.Errorf("%s = %v out of range [0,1]", th.name, th.value)
		}
	}
	if err := ValidateStrategy(d.DefaultStrategy); err != nil {
		return fmt.Errorf("deduplication.default_strategy: %w", err)
	}
	return nil
}

// ─── Paths ───────────────────────────────────────────────────────────────────

// DataPath returns the absolute path to the .specforge/ directory.
func DataPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir)
}

// ConfigPath returns the absolute path to the project's config.json.
func ConfigPath(projectRoot string) string {
	return filepath.Join(DataPath(projectRoot), FileName)
}

// FeaturesPath returns the absolute path to the rendered features directory.
func FeaturesPath(projectRoot string) string {
	return filepath.Join(DataPath(projectRoot), FeaturesDir)
}

// FindProjectRoot walks up from the current working directory looking for
// an existing .specforge/config.json. If none is found, returns cwd — the
// server then initializes a fresh project there.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if _, err := os.Stat(ConfigPath(current)); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store defines the persistence interface for project configuration.
// Abstracted for testability.
type Store interface {
	Load(projectRoot string) (*Config, error)
	Save(projectRoot string, cfg *Config) error
}

// FileStore implements Store using the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem-backed config store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads and validates the project's config.json. A missing file is
// not an error: the defaults are returned instead.
func (fs *FileStore) Load(projectRoot string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON, creating .specforge/ as needed.
func (fs *FileStore) Save(projectRoot string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(DataPath(projectRoot), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", Dir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(ConfigPath(projectRoot), append(data, '\n'), 0o644)
}
