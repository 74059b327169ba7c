package settings

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Package settings holds the import engine's tuning knobs. Compiled-in
// defaults can be overlaid from a YAML file; anything absent from the file
// keeps its default, and an unreadable file falls back to defaults entirely.

// Settings holds the engine configuration that can be overridden by the user.
type Settings struct {
	// MaxFileSizeMB is the input size ceiling; oversized files fail fast
	// rather than entering the pipeline.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`

	// DuplicateThreshold is the minimum confidence for reporting a
	// duplicate candidate. The main precision/recall trade-off.
	DuplicateThreshold float64 `yaml:"duplicate_threshold" json:"duplicate_threshold"`

	// EmailMatchFloor is the confidence floor for exact email matches.
	EmailMatchFloor float64 `yaml:"email_match_floor" json:"email_match_floor"`

	// PhoneMatchFloor is the confidence floor for exact phone-digit matches.
	PhoneMatchFloor float64 `yaml:"phone_match_floor" json:"phone_match_floor"`

	// PhoneSuffixLength is the trailing digit count used as a phone
	// blocking key.
	PhoneSuffixLength int `yaml:"phone_suffix_length" json:"phone_suffix_length"`

	// DetectWorkers bounds concurrent blocking-group scoring.
	DetectWorkers int `yaml:"detect_workers" json:"detect_workers"`

	// CommitWorkers is the worker pool size for the final batched commit.
	CommitWorkers int `yaml:"commit_workers" json:"commit_workers"`

	// CommitTimeoutSeconds is the per-write timeout during commit.
	CommitTimeoutSeconds int `yaml:"commit_timeout_seconds" json:"commit_timeout_seconds"`

	// EnableCache toggles the parse/analysis result cache.
	EnableCache bool `yaml:"enable_cache" json:"enable_cache"`

	// CacheSizeLimitMB is the result cache size limit in MB.
	CacheSizeLimitMB int `yaml:"cache_size_limit_mb" json:"cache_size_limit_mb"`
}

// defaultSettings are the compiled-in defaults.
var defaultSettings = Settings{
	MaxFileSizeMB:        20,
	DuplicateThreshold:   0.5,
	EmailMatchFloor:      0.9,
	PhoneMatchFloor:      0.8,
	PhoneSuffixLength:    7,
	DetectWorkers:        4,
	CommitWorkers:        10,
	CommitTimeoutSeconds: 10,
	EnableCache:          true,
	CacheSizeLimitMB:     64,
}

// Default returns the compiled-in default settings.
func Default() Settings {
	return defaultSettings
}

// Load returns the effective settings: defaults overlaid with the YAML file
// at path, when it exists. If anything goes wrong reading or parsing the
// file, defaults are returned.
func Load(path string) Settings {
	settings := defaultSettings
	if path == "" {
		return settings
	}
	if _, err := os.Stat(path); err != nil {
		// no file or other stat error -> return defaults
		return settings
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	if err := yaml.Unmarshal(b, &settings); err != nil {
		return defaultSettings
	}
	return settings.sanitized()
}

// Save writes the settings to the YAML file at path.
func Save(path string, s Settings) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}

// sanitized clamps nonsensical overrides back to defaults so a bad settings
// file cannot disable the pipeline.
func (s Settings) sanitized() Settings {
	if s.MaxFileSizeMB <= 0 {
		s.MaxFileSizeMB = defaultSettings.MaxFileSizeMB
	}
	if s.DuplicateThreshold <= 0 || s.DuplicateThreshold > 1 {
		s.DuplicateThreshold = defaultSettings.DuplicateThreshold
	}
	if s.EmailMatchFloor <= 0 || s.EmailMatchFloor > 1 {
		s.EmailMatchFloor = defaultSettings.EmailMatchFloor
	}
	if s.PhoneMatchFloor <= 0 || s.PhoneMatchFloor > 1 {
		s.PhoneMatchFloor = defaultSettings.PhoneMatchFloor
	}
	if s.PhoneSuffixLength < 4 || s.PhoneSuffixLength > 10 {
		s.PhoneSuffixLength = defaultSettings.PhoneSuffixLength
	}
	if s.DetectWorkers < 1 {
		s.DetectWorkers = defaultSettings.DetectWorkers
	}
	if s.CommitWorkers < 1 {
		s.CommitWorkers = defaultSettings.CommitWorkers
	}
	if s.CommitTimeoutSeconds < 1 {
		s.CommitTimeoutSeconds = defaultSettings.CommitTimeoutSeconds
	}
	if s.CacheSizeLimitMB < 1 {
		s.CacheSizeLimitMB = defaultSettings.CacheSizeLimitMB
	}
	return s
}

// MaxFileBytes returns the size ceiling in bytes.
func (s Settings) MaxFileBytes() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

// CommitTimeout returns the per-write commit timeout as a duration.
func (s Settings) CommitTimeout() time.Duration {
	return time.Duration(s.CommitTimeoutSeconds) * time.Second
}
