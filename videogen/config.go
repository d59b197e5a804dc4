package videogen

import "fmt"

// Parameter bounds for video generation. Frame counts follow the model's
// 8n+1 native spacing at the extremes.
const (
	MinWidth     = 256
	MaxWidth     = 1280
	DefaultWidth = 768

	MinHeight     = 256
	MaxHeight     = 720
	DefaultHeight = 512

	MinFrames     = 25
	MaxFrames     = 257
	DefaultFrames = 97

	DefaultSteps    = 50
	DefaultGuidance = 7.5
	DefaultFPS      = 24

	MaxPromptLength = 1000
)

// GenerateConfig holds parameters for one video generation request.
type GenerateConfig struct {
	// Prompt is the text description of the video (required).
	Prompt string
	// NegativePrompt describes what to avoid (optional).
	NegativePrompt string
	// Width and Height in pixels. Zero means the defaults (768x512).
	Width  int
	Height int
	// NumFrames is the clip length in frames. Zero means DefaultFrames.
	NumFrames int
	// Steps is the number of inference steps. Zero means DefaultSteps.
	Steps int
	// Guidance is the classifier-free guidance scale. Zero means
	// DefaultGuidance.
	Guidance float64
	// FPS is the playback rate stamped into the container. Zero means
	// DefaultFPS.
	FPS int
	// Seed makes generation reproducible. Nil draws a random seed.
	Seed *int64
	// OutputPath is where the clip is written (required).
	OutputPath string
	// SourceImage is the conditioning image path, required for
	// image-to-video and ignored for text-to-video.
	SourceImage string
}

// WithDefaults returns a copy of cfg with zero values replaced by defaults.
func (c GenerateConfig) WithDefaults() GenerateConfig {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.NumFrames == 0 {
		c.NumFrames = DefaultFrames
	}
	if c.Steps == 0 {
		c.Steps = DefaultSteps
	}
	if c.Guidance == 0 {
		c.Guidance = DefaultGuidance
	}
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	return c
}

// Validate checks bounds after defaults have been applied.
func (c GenerateConfig) Validate() error {
	if c.Prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidParams)
	}
	if len(c.Prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt length %d exceeds maximum %d", ErrInvalidParams, len(c.Prompt), MaxPromptLength)
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		return fmt.Errorf("%w: width %d must be between %d and %d", ErrInvalidParams, c.Width, MinWidth, MaxWidth)
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		return fmt.Errorf("%w: height %d must be between %d and %d", ErrInvalidParams, c.Height, MinHeight, MaxHeight)
	}
	if c.NumFrames < MinFrames || c.NumFrames > MaxFrames {
		return fmt.Errorf("%w: num_frames %d must be between %d and %d", ErrInvalidParams, c.NumFrames, MinFrames, MaxFrames)
	}
	if c.Steps < 1 {
		return fmt.Errorf("%w: steps must be at least 1", ErrInvalidParams)
	}
	if c.Guidance < 0 {
		return fmt.Errorf("%w: guidance must not be negative", ErrInvalidParams)
	}
	if c.FPS < 1 {
		return fmt.Errorf("%w: fps must be at least 1", ErrInvalidParams)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidParams)
	}
	return nil
}
