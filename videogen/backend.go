// Package videogen provides text-to-video and image-to-video generation
// over one video model. The two pipeline kinds load lazily into separate
// slots and can be resident together since they share the model's weights.
package videogen

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AMFbot-Gz/AMFbot-Suite/catalog"
	"github.com/AMFbot-Gz/AMFbot-Suite/core"
	"github.com/AMFbot-Gz/AMFbot-Suite/downloader"
	"github.com/AMFbot-Gz/AMFbot-Suite/logging"
	"github.com/AMFbot-Gz/AMFbot-Suite/metrics"
)

// WeightSource delivers model weights on demand. *downloader.Manager is the
// production implementation.
type WeightSource interface {
	Download(ctx context.Context, id string, opts downloader.DownloadOptions) (string, error)
}

// ModelInfo is a snapshot of the backend's pipeline slots.
type ModelInfo struct {
	// ModelID is the catalog id this backend serves.
	ModelID string `json:"model_id"`
	// Device and Dtype the backend would run on.
	Device string `json:"device"`
	Dtype  string `json:"dtype"`
	// TextLoaded and ImageLoaded report slot residency.
	TextLoaded  bool `json:"text_loaded"`
	ImageLoaded bool `json:"image_loaded"`
}

// Backend owns the video pipeline slots. One mutex serializes loading and
// generation across both modes.
type Backend struct {
	modelID  string
	source   WeightSource
	factory  PipelineFactory
	registry *catalog.Registry
	probe    *metrics.Probe
	logger   *zap.Logger

	mu        sync.Mutex
	text2vid  Pipeline
	image2vid Pipeline
}

// BackendOption is a functional option for configuring Backend.
type BackendOption func(*Backend)

// WithModelID selects the catalog model the backend loads.
func WithModelID(id string) BackendOption {
	return func(b *Backend) {
		if id != "" {
			b.modelID = id
		}
	}
}

// WithRegistry sets the model registry (defaults to the built-in catalog).
func WithRegistry(r *catalog.Registry) BackendOption {
	return func(b *Backend) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithProbe sets the GPU probe used for device selection.
func WithProbe(p *metrics.Probe) BackendOption {
	return func(b *Backend) {
		if p != nil {
			b.probe = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) BackendOption {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackend creates a video generation backend. The model id must exist in
// the registry and be a video model. Nothing loads until first use.
func NewBackend(source WeightSource, factory PipelineFactory, opts ...BackendOption) (*Backend, error) {
	if source == nil {
		return nil, fmt.Errorf("videogen: weight source is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("videogen: pipeline factory is required")
	}

	b := &Backend{
		modelID:  catalog.LTXVideoDistilled,
		source:   source,
		factory:  factory,
		registry: catalog.Builtin(),
		probe:    metrics.NewProbe(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	desc, ok := b.registry.Lookup(b.modelID)
	if !ok {
		return nil, fmt.Errorf("videogen: unknown model %q", b.modelID)
	}
	if desc.Modality != catalog.ModalityVideo {
		return nil, fmt.Errorf("videogen: model %q is not a video model", b.modelID)
	}
	return b, nil
}

// Generate renders a clip from text and returns the output path.
func (b *Backend) Generate(ctx context.Context, cfg GenerateConfig) (string, error) {
	return b.generate(ctx, cfg, ModeText2Video)
}

// GenerateFromImage renders a clip conditioned on cfg.SourceImage and
// returns the output path. The source must exist and decode as PNG or JPEG.
func (b *Backend) GenerateFromImage(ctx context.Context, cfg GenerateConfig) (string, error) {
	if cfg.SourceImage == "" {
		return "", fmt.Errorf("%w: source image is required", ErrInvalidParams)
	}
	return b.generate(ctx, cfg, ModeImage2Video)
}

func (b *Backend) generate(ctx context.Context, cfg GenerateConfig, mode Mode) (string, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	// Decode and resize the conditioning image before touching the pipeline
	// so bad input never costs a model load.
	var conditioning image.Image
	if mode == ModeImage2Video {
		img, err := loadConditioningImage(cfg.SourceImage, cfg.Width, cfg.Height)
		if err != nil {
			return "", err
		}
		conditioning = img
	}

	seed := core.RandomSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pipeline, err := b.ensureLoadedLocked(ctx, mode)
	if err != nil {
		return "", err
	}
	start := time.Now()

	b.logger.Info("generating video",
		zap.String("mode", string(mode)),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("num_frames", cfg.NumFrames),
		zap.Int64("seed", seed))

	clip, err := pipeline.Render(ctx, RenderRequest{
		Prompt:         cfg.Prompt,
		NegativePrompt: cfg.NegativePrompt,
		Width:          cfg.Width,
		Height:         cfg.Height,
		NumFrames:      cfg.NumFrames,
		Steps:          cfg.Steps,
		Guidance:       cfg.Guidance,
		FPS:            cfg.FPS,
		Seed:           seed,
		Conditioning:   conditioning,
	})
	if err != nil {
		return "", err
	}

	if err := encodeVideo(clip, cfg.OutputPath); err != nil {
		return "", err
	}

	b.logger.Info("video generation finished", logging.GenerationFields(logging.GenerationMetrics{
		ModelID:  b.modelID,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Steps:    cfg.Steps,
		Frames:   cfg.NumFrames,
		Seed:     seed,
		Duration: time.Since(start),
	}))
	return cfg.OutputPath, nil
}

// ensureLoadedLocked makes the pipeline for mode resident, loading it on
// first use. Callers hold b.mu.
func (b *Backend) ensureLoadedLocked(ctx context.Context, mode Mode) (Pipeline, error) {
	slot := b.slotLocked(mode)
	if *slot != nil {
		return *slot, nil
	}

	weightsDir, err := b.source.Download(ctx, b.modelID, downloader.DownloadOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: weights for %q unavailable: %v", ErrLoadFailed, b.modelID, err)
	}

	device, dtype := b.probe.Device()
	if desc, ok := b.registry.Lookup(b.modelID); ok && device == metrics.DeviceCUDA {
		if free := b.probe.FreeMemory(); free > 0 && free < desc.MinMemoryBytes {
			b.logger.Warn("GPU memory below model minimum",
				zap.String("model", b.modelID),
				zap.Int64("free_bytes", free),
				zap.Int64("min_bytes", desc.MinMemoryBytes))
		}
	}

	b.logger.Info("loading video pipeline",
		zap.String("mode", string(mode)),
		zap.String("model", b.modelID),
		zap.String("device", device),
		zap.String("dtype", dtype))

	pipeline, err := b.factory(mode, weightsDir, device, dtype)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	*slot = pipeline
	return pipeline, nil
}

func (b *Backend) slotLocked(mode Mode) *Pipeline {
	if mode == ModeImage2Video {
		return &b.image2vid
	}
	return &b.text2vid
}

// Unload releases both pipeline slots. Safe to call when nothing is loaded.
func (b *Backend) Unload() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, slot := range []*Pipeline{&b.text2vid, &b.image2vid} {
		if *slot == nil {
			continue
		}
		if err := (*slot).Close(); err != nil {
			b.logger.Warn("failed to close video pipeline", zap.Error(err))
		}
		*slot = nil
	}
	b.logger.Info("unloaded video pipelines", zap.String("model", b.modelID))
}

// ModelInfo reports slot residency and compute placement.
func (b *Backend) ModelInfo() ModelInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	device, dtype := b.probe.Device()
	return ModelInfo{
		ModelID:     b.modelID,
		Device:      device,
		Dtype:       dtype,
		TextLoaded:  b.text2vid != nil,
		ImageLoaded: b.image2vid != nil,
	}
}
