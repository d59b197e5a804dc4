package imagegen

import (
	"context"
	"image"
)

// RenderRequest is the fully resolved input handed to a pipeline: defaults
// applied, variant policy clamped, seed decided.
type RenderRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	Guidance       float64
	// Seed for the first image; image i uses Seed+i.
	Seed      int64
	NumImages int
}

// Pipeline is a loaded image model. Implementations must produce identical
// output for identical requests (same seed, same settings).
type Pipeline interface {
	// Render generates NumImages images, in order.
	Render(ctx context.Context, req RenderRequest) ([]image.Image, error)
	// Close releases the pipeline's resources.
	Close() error
}

// PipelineFactory constructs a pipeline for a variant once its weights are
// in place. device and dtype come from the GPU probe.
type PipelineFactory func(variant, weightsDir, device, dtype string) (Pipeline, error)
