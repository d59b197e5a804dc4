package videogen

import (
	"errors"
	"strings"
	"testing"
)

func TestWithDefaults(t *testing.T) {
	got := GenerateConfig{Prompt: "waves", OutputPath: "out.mp4"}.WithDefaults()

	if got.Width != DefaultWidth || got.Height != DefaultHeight {
		t.Errorf("dimensions = %dx%d, want %dx%d", got.Width, got.Height, DefaultWidth, DefaultHeight)
	}
	if got.NumFrames != DefaultFrames {
		t.Errorf("NumFrames = %d, want %d", got.NumFrames, DefaultFrames)
	}
	if got.Steps != DefaultSteps {
		t.Errorf("Steps = %d, want %d", got.Steps, DefaultSteps)
	}
	if got.Guidance != DefaultGuidance {
		t.Errorf("Guidance = %v, want %v", got.Guidance, DefaultGuidance)
	}
	if got.FPS != DefaultFPS {
		t.Errorf("FPS = %d, want %d", got.FPS, DefaultFPS)
	}

	explicit := GenerateConfig{Prompt: "waves", OutputPath: "out.mp4", Width: 640, NumFrames: 49, FPS: 30}.WithDefaults()
	if explicit.Width != 640 || explicit.NumFrames != 49 || explicit.FPS != 30 {
		t.Errorf("defaults overwrote explicit values: %+v", explicit)
	}
}

func TestValidate(t *testing.T) {
	valid := func() GenerateConfig {
		return GenerateConfig{
			Prompt:     "ocean waves at sunset",
			Width:      768,
			Height:     512,
			NumFrames:  97,
			Steps:      50,
			Guidance:   7.5,
			FPS:        24,
			OutputPath: "out.mp4",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*GenerateConfig)
		wantErr bool
	}{
		{"valid", func(c *GenerateConfig) {}, false},
		{"empty prompt", func(c *GenerateConfig) { c.Prompt = "" }, true},
		{"prompt too long", func(c *GenerateConfig) { c.Prompt = strings.Repeat("x", MaxPromptLength+1) }, true},
		{"width below minimum", func(c *GenerateConfig) { c.Width = 128 }, true},
		{"width above maximum", func(c *GenerateConfig) { c.Width = 1920 }, true},
		{"height above maximum", func(c *GenerateConfig) { c.Height = 1080 }, true},
		{"width at video maximum", func(c *GenerateConfig) { c.Width = MaxWidth }, false},
		{"height at video maximum", func(c *GenerateConfig) { c.Height = MaxHeight }, false},
		{"frames below minimum", func(c *GenerateConfig) { c.NumFrames = 24 }, true},
		{"frames above maximum", func(c *GenerateConfig) { c.NumFrames = 258 }, true},
		{"frames at bounds", func(c *GenerateConfig) { c.NumFrames = MinFrames }, false},
		{"zero steps", func(c *GenerateConfig) { c.Steps = 0 }, true},
		{"negative guidance", func(c *GenerateConfig) { c.Guidance = -1 }, true},
		{"zero fps", func(c *GenerateConfig) { c.FPS = 0 }, true},
		{"missing output path", func(c *GenerateConfig) { c.OutputPath = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("validate() error = %v, want ErrInvalidParams", err)
			}
		})
	}
}
