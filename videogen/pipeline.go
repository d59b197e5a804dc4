package videogen

import (
	"context"
	"image"
)

// Mode distinguishes the two pipeline kinds a video model exposes.
type Mode string

const (
	ModeText2Video  Mode = "text2video"
	ModeImage2Video Mode = "image2video"
)

// RenderRequest is the fully resolved input handed to a pipeline.
type RenderRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	NumFrames      int
	Steps          int
	Guidance       float64
	FPS            int
	Seed           int64
	// Conditioning is the resized source image for image-to-video, nil for
	// text-to-video.
	Conditioning image.Image
}

// Clip is a rendered video stream ready for containerization.
type Clip struct {
	Width      int
	Height     int
	FPS        int
	FrameCount int
	// Data is the encoded frame stream.
	Data []byte
}

// Pipeline is a loaded video model. Implementations must produce identical
// output for identical requests.
type Pipeline interface {
	Render(ctx context.Context, req RenderRequest) (*Clip, error)
	Close() error
}

// PipelineFactory constructs a pipeline of the given mode once weights are
// in place.
type PipelineFactory func(mode Mode, weightsDir, device, dtype string) (Pipeline, error)
