package core

import (
	"os"
	"testing"
	"time"
)

// clearConfigEnv unsets every variable LoadConfig reads so tests start from
// a clean environment.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"AMFBOT_OUTPUT_DIR", "AMFBOT_MODELS_DIR", "AMFBOT_MEDIA_HOST",
		"AMFBOT_MEDIA_PORT", "AMFBOT_MAX_DOWNLOADS", "AMFBOT_JOB_WORKERS",
		"AMFBOT_JOB_TTL_SECONDS", "AMFBOT_MODEL_CATALOG", "AMFBOT_VIDEO_MODEL",
		"AMFBOT_IMAGE_API_URL", "AMFBOT_IMAGE_API_KEY", "HF_TOKEN",
		"AMFBOT_LOG_FILE", "DEV_MODE",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, DefaultOutputDir)
	}
	if cfg.ModelsDir != DefaultModelsDir {
		t.Errorf("ModelsDir = %q, want %q", cfg.ModelsDir, DefaultModelsDir)
	}
	if cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host, DefaultHost)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.MaxConcurrentDownloads != DefaultMaxDownloads {
		t.Errorf("MaxConcurrentDownloads = %d, want %d", cfg.MaxConcurrentDownloads, DefaultMaxDownloads)
	}
	if cfg.JobWorkers != DefaultJobWorkers {
		t.Errorf("JobWorkers = %d, want %d", cfg.JobWorkers, DefaultJobWorkers)
	}
	if cfg.JobTTL != 0 {
		t.Errorf("JobTTL = %v, want 0", cfg.JobTTL)
	}
	if cfg.VideoModelID != DefaultVideoModelID {
		t.Errorf("VideoModelID = %q, want %q", cfg.VideoModelID, DefaultVideoModelID)
	}
	if cfg.DevMode {
		t.Error("DevMode = true, want false")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	os.Setenv("AMFBOT_OUTPUT_DIR", "/data/out")
	os.Setenv("AMFBOT_MEDIA_PORT", "9000")
	os.Setenv("AMFBOT_MAX_DOWNLOADS", "4")
	os.Setenv("AMFBOT_JOB_TTL_SECONDS", "600")
	os.Setenv("HF_TOKEN", "hf_testtoken")
	os.Setenv("DEV_MODE", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.OutputDir != "/data/out" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/data/out")
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.MaxConcurrentDownloads != 4 {
		t.Errorf("MaxConcurrentDownloads = %d, want 4", cfg.MaxConcurrentDownloads)
	}
	if cfg.JobTTL != 600*time.Second {
		t.Errorf("JobTTL = %v, want 10m", cfg.JobTTL)
	}
	if cfg.HFToken != "hf_testtoken" {
		t.Errorf("HFToken = %q, want %q", cfg.HFToken, "hf_testtoken")
	}
	if !cfg.DevMode {
		t.Error("DevMode = false, want true")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			OutputDir:              "./outputs",
			ModelsDir:              "./models",
			Host:                   "0.0.0.0",
			Port:                   8765,
			MaxConcurrentDownloads: 2,
			JobWorkers:             2,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"zero download workers", func(c *Config) { c.MaxConcurrentDownloads = 0 }, true},
		{"zero job workers", func(c *Config) { c.JobWorkers = 0 }, true},
		{"negative TTL", func(c *Config) { c.JobTTL = -time.Second }, true},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, true},
		{"empty models dir", func(c *Config) { c.ModelsDir = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
