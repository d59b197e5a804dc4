// Package core provides configuration loading and shared helper atoms used
// across the media generation service: env parsing, byte formatting, SHA256
// checksums, HTTP Range utilities, and disk space checks.
package core

import (
	"fmt"
	"time"
)

// Config holds all environment-driven configuration values.
// Every field has a documented default; LoadConfig never fails on a missing
// variable, only on values that are present but out of range.
type Config struct {
	// OutputDir is where generated images and videos are written.
	// Env: AMFBOT_OUTPUT_DIR (default "./outputs")
	OutputDir string

	// ModelsDir is the root directory for downloaded model weights.
	// Env: AMFBOT_MODELS_DIR (default "./models")
	ModelsDir string

	// Host and Port for the HTTP API.
	// Env: AMFBOT_MEDIA_HOST (default "0.0.0.0"), AMFBOT_MEDIA_PORT (default 8765)
	Host string
	Port int

	// MaxConcurrentDownloads bounds the download worker pool.
	// Env: AMFBOT_MAX_DOWNLOADS (default 2)
	MaxConcurrentDownloads int

	// JobWorkers is the size of the generation worker pool.
	// Env: AMFBOT_JOB_WORKERS (default 2)
	JobWorkers int

	// JobTTL evicts terminal jobs older than this duration when > 0.
	// Zero (the default) retains jobs for the life of the process, matching
	// the original behavior.
	// Env: AMFBOT_JOB_TTL_SECONDS (default 0)
	JobTTL time.Duration

	// CatalogPath optionally replaces the built-in model catalog with a YAML
	// file. Env: AMFBOT_MODEL_CATALOG (default "" = built-in catalog)
	CatalogPath string

	// VideoModelID selects which catalog entry the video backend loads.
	// Env: AMFBOT_VIDEO_MODEL (default "ltx-video-distilled")
	VideoModelID string

	// ImageAPIURL and ImageAPIKey configure an optional remote
	// OpenAI-compatible image pipeline. When ImageAPIURL is empty the local
	// pipeline is used.
	// Env: AMFBOT_IMAGE_API_URL, AMFBOT_IMAGE_API_KEY
	ImageAPIURL string
	ImageAPIKey string

	// HFToken authenticates weight downloads against gated repositories.
	// Env: HF_TOKEN (default "")
	HFToken string

	// LogFile is the rotating log file path.
	// Env: AMFBOT_LOG_FILE (default "media-gen.log")
	LogFile string

	// DevMode enables debug logging and human-readable console output.
	// Env: DEV_MODE (default false)
	DevMode bool
}

// Default configuration values.
const (
	DefaultOutputDir    = "./outputs"
	DefaultModelsDir    = "./models"
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8765
	DefaultMaxDownloads = 2
	DefaultJobWorkers   = 2
	DefaultVideoModelID = "ltx-video-distilled"
	DefaultLogFile      = "media-gen.log"
)

// LoadConfig reads configuration from the environment, applying defaults for
// anything unset. Values that are set but invalid (e.g. a port outside
// 1-65535) return an error rather than being silently clamped.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		OutputDir:              GetEnvOrDefault("AMFBOT_OUTPUT_DIR", DefaultOutputDir),
		ModelsDir:              GetEnvOrDefault("AMFBOT_MODELS_DIR", DefaultModelsDir),
		Host:                   GetEnvOrDefault("AMFBOT_MEDIA_HOST", DefaultHost),
		Port:                   ParseIntEnv("AMFBOT_MEDIA_PORT", DefaultPort),
		MaxConcurrentDownloads: ParseIntEnv("AMFBOT_MAX_DOWNLOADS", DefaultMaxDownloads),
		JobWorkers:             ParseIntEnv("AMFBOT_JOB_WORKERS", DefaultJobWorkers),
		JobTTL:                 ParseDurationEnv("AMFBOT_JOB_TTL_SECONDS", 0),
		CatalogPath:            GetEnvOrDefault("AMFBOT_MODEL_CATALOG", ""),
		VideoModelID:           GetEnvOrDefault("AMFBOT_VIDEO_MODEL", DefaultVideoModelID),
		ImageAPIURL:            GetEnvOrDefault("AMFBOT_IMAGE_API_URL", ""),
		ImageAPIKey:            GetEnvOrDefault("AMFBOT_IMAGE_API_KEY", ""),
		HFToken:                GetEnvOrDefault("HF_TOKEN", ""),
		LogFile:                GetEnvOrDefault("AMFBOT_LOG_FILE", DefaultLogFile),
		DevMode:                ParseBoolEnv("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration values for internal consistency.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("core: invalid port %d: must be between 1 and 65535", c.Port)
	}
	if c.MaxConcurrentDownloads < 1 {
		return fmt.Errorf("core: AMFBOT_MAX_DOWNLOADS must be at least 1, got %d", c.MaxConcurrentDownloads)
	}
	if c.JobWorkers < 1 {
		return fmt.Errorf("core: AMFBOT_JOB_WORKERS must be at least 1, got %d", c.JobWorkers)
	}
	if c.JobTTL < 0 {
		return fmt.Errorf("core: AMFBOT_JOB_TTL_SECONDS must not be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("core: output directory must not be empty")
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("core: models directory must not be empty")
	}
	return nil
}
