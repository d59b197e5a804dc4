package imagegen

import (
	"fmt"

	"github.com/AMFbot-Gz/AMFbot-Suite/catalog"
)

// Parameter bounds for image generation.
const (
	MinImageSize = 256
	MaxImageSize = 2048

	DefaultImageSize = 1024

	MinImages = 1
	MaxImages = 4

	MaxPromptLength = 1000
)

// Per-variant inference defaults and limits. The fast variant runs a
// distilled model that degrades beyond a few steps and ignores guidance;
// the quality variant needs a minimum number of steps to converge.
const (
	FastMaxSteps     = 4
	FastDefaultSteps = 4

	QualityMinSteps     = 20
	QualityDefaultSteps = 28

	QualityMinGuidance     = 3.5
	QualityDefaultGuidance = 3.5
)

// GenerateConfig holds parameters for one image generation request.
type GenerateConfig struct {
	// Prompt is the text description of the image to generate (required).
	Prompt string
	// NegativePrompt describes what to avoid (optional).
	NegativePrompt string
	// Variant selects the model: "fast" or "quality". Empty means fast.
	Variant string
	// Width and Height in pixels. Zero means DefaultImageSize.
	Width  int
	Height int
	// Steps is the number of inference steps. Zero means the variant default.
	Steps int
	// Guidance is the classifier-free guidance scale.
	Guidance float64
	// Seed makes generation reproducible. Nil draws a random seed.
	Seed *int64
	// OutputPath is where the image is written (required). With NumImages > 1
	// it becomes the base name for the numbered outputs.
	OutputPath string
	// NumImages is how many images to generate (1-4). Zero means 1.
	NumImages int
}

// WithDefaults returns a copy of cfg with zero values replaced by defaults.
func (c GenerateConfig) WithDefaults() GenerateConfig {
	if c.Variant == "" {
		c.Variant = catalog.VariantFast
	}
	if c.Width == 0 {
		c.Width = DefaultImageSize
	}
	if c.Height == 0 {
		c.Height = DefaultImageSize
	}
	if c.NumImages == 0 {
		c.NumImages = 1
	}
	if c.Steps == 0 {
		if c.Variant == catalog.VariantQuality {
			c.Steps = QualityDefaultSteps
		} else {
			c.Steps = FastDefaultSteps
		}
	}
	if c.Guidance == 0 && c.Variant == catalog.VariantQuality {
		c.Guidance = QualityDefaultGuidance
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
	if c.Width < MinImageSize || c.Width > MaxImageSize {
		return fmt.Errorf("%w: width %d must be between %d and %d", ErrInvalidParams, c.Width, MinImageSize, MaxImageSize)
	}
	if c.Height < MinImageSize || c.Height > MaxImageSize {
		return fmt.Errorf("%w: height %d must be between %d and %d", ErrInvalidParams, c.Height, MinImageSize, MaxImageSize)
	}
	if c.NumImages < MinImages || c.NumImages > MaxImages {
		return fmt.Errorf("%w: num_images %d must be between %d and %d", ErrInvalidParams, c.NumImages, MinImages, MaxImages)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidParams)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must not be negative", ErrInvalidParams)
	}
	if c.Guidance < 0 {
		return fmt.Errorf("%w: guidance must not be negative", ErrInvalidParams)
	}
	return nil
}

// applyVariantPolicy clamps inference settings to what the variant's model
// can actually honor.
func (c GenerateConfig) applyVariantPolicy() GenerateConfig {
	switch c.Variant {
	case catalog.VariantFast:
		if c.Steps > FastMaxSteps {
			c.Steps = FastMaxSteps
		}
		c.Guidance = 0
	case catalog.VariantQuality:
		if c.Steps < QualityMinSteps {
			c.Steps = QualityMinSteps
		}
		if c.Guidance < QualityMinGuidance {
			c.Guidance = QualityMinGuidance
		}
	}
	return c
}
