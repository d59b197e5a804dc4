// Package imagegen provides text-to-image generation with lazily loaded
// model pipelines. One pipeline is resident at a time; requesting a
// different variant swaps it out.
package imagegen

import (
	"context"
	"fmt"
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

// ModelInfo is a snapshot of the backend's resident pipeline state.
type ModelInfo struct {
	// Variant of the loaded pipeline, empty when nothing is resident.
	Variant string `json:"variant,omitempty"`
	// ModelID is the catalog id backing the loaded variant.
	ModelID string `json:"model_id,omitempty"`
	// Device and Dtype the backend would run on.
	Device string `json:"device"`
	Dtype  string `json:"dtype"`
	// Loaded reports whether a pipeline is resident.
	Loaded bool `json:"loaded"`
}

// Backend owns the single resident image pipeline. All pipeline loading,
// swapping, and generation is serialized through one mutex; two concurrent
// generations queue rather than fight over the slot.
type Backend struct {
	source   WeightSource
	factory  PipelineFactory
	registry *catalog.Registry
	probe    *metrics.Probe
	logger   *zap.Logger

	mu       sync.Mutex
	pipeline Pipeline
	variant  string
	modelID  string
}

// BackendOption is a functional option for configuring Backend.
type BackendOption func(*Backend)

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

// NewBackend creates an image generation backend. Nothing is loaded until
// the first Generate call.
func NewBackend(source WeightSource, factory PipelineFactory, opts ...BackendOption) (*Backend, error) {
	if source == nil {
		return nil, fmt.Errorf("imagegen: weight source is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("imagegen: pipeline factory is required")
	}

	b := &Backend{
		source:   source,
		factory:  factory,
		registry: catalog.Builtin(),
		probe:    metrics.NewProbe(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Generate runs one generation request end to end: validate, ensure the
// right pipeline is resident, render, save. Returns the ordered output
// paths.
func (b *Backend) Generate(ctx context.Context, cfg GenerateConfig) ([]string, error) {
	cfg = cfg.WithDefaults()

	modelID, err := catalog.ImageVariantModel(cfg.Variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %q (valid: %s, %s)",
			ErrInvalidVariant, cfg.Variant, catalog.VariantFast, catalog.VariantQuality)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.applyVariantPolicy()

	seed := core.RandomSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureLoadedLocked(ctx, cfg.Variant, modelID); err != nil {
		return nil, err
	}
	start := time.Now()

	req := RenderRequest{
		Prompt:         cfg.Prompt,
		NegativePrompt: cfg.NegativePrompt,
		Width:          cfg.Width,
		Height:         cfg.Height,
		Steps:          cfg.Steps,
		Guidance:       cfg.Guidance,
		Seed:           seed,
		NumImages:      cfg.NumImages,
	}

	b.logger.Info("generating image",
		zap.String("variant", cfg.Variant),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("steps", cfg.Steps),
		zap.Int64("seed", seed),
		zap.Int("num_images", cfg.NumImages))

	images, err := b.pipeline.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(images) != cfg.NumImages {
		return nil, fmt.Errorf("%w: pipeline returned %d images, want %d",
			ErrGenerationFailed, len(images), cfg.NumImages)
	}

	paths := OutputPaths(cfg.OutputPath, cfg.NumImages)
	for i, img := range images {
		if err := savePNG(img, paths[i]); err != nil {
			return nil, err
		}
	}

	b.logger.Info("image generation finished", logging.GenerationFields(logging.GenerationMetrics{
		ModelID:  modelID,
		Variant:  cfg.Variant,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Steps:    cfg.Steps,
		Seed:     seed,
		Duration: time.Since(start),
	}))
	return paths, nil
}

// ensureLoadedLocked makes the requested variant resident. Same variant
// reuses the pipeline; a different variant closes the old one first.
// Callers hold b.mu.
func (b *Backend) ensureLoadedLocked(ctx context.Context, variant, modelID string) error {
	if b.pipeline != nil && b.variant == variant {
		return nil
	}

	if b.pipeline != nil {
		b.logger.Info("swapping image pipeline",
			zap.String("from", b.variant),
			zap.String("to", variant))
		if err := b.pipeline.Close(); err != nil {
			b.logger.Warn("failed to close previous pipeline", zap.Error(err))
		}
		b.pipeline = nil
		b.variant = ""
		b.modelID = ""
	}

	weightsDir, err := b.source.Download(ctx, modelID, downloader.DownloadOptions{})
	if err != nil {
		return fmt.Errorf("%w: weights for %q unavailable: %v", ErrLoadFailed, modelID, err)
	}

	device, dtype := b.probe.Device()
	if desc, ok := b.registry.Lookup(modelID); ok && device == metrics.DeviceCUDA {
		if free := b.probe.FreeMemory(); free > 0 && free < desc.MinMemoryBytes {
			b.logger.Warn("GPU memory below model minimum",
				zap.String("model", modelID),
				zap.Int64("free_bytes", free),
				zap.Int64("min_bytes", desc.MinMemoryBytes))
		}
	}

	b.logger.Info("loading image pipeline",
		zap.String("variant", variant),
		zap.String("model", modelID),
		zap.String("device", device),
		zap.String("dtype", dtype))

	pipeline, err := b.factory(variant, weightsDir, device, dtype)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	b.pipeline = pipeline
	b.variant = variant
	b.modelID = modelID
	return nil
}

// Unload releases the resident pipeline. Safe to call when nothing is
// loaded.
func (b *Backend) Unload() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pipeline == nil {
		return
	}
	if err := b.pipeline.Close(); err != nil {
		b.logger.Warn("failed to close pipeline", zap.Error(err))
	}
	b.logger.Info("unloaded image pipeline", zap.String("variant", b.variant))
	b.pipeline = nil
	b.variant = ""
	b.modelID = ""
}

// ModelInfo reports the resident pipeline and compute placement.
func (b *Backend) ModelInfo() ModelInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	device, dtype := b.probe.Device()
	return ModelInfo{
		Variant: b.variant,
		ModelID: b.modelID,
		Device:  device,
		Dtype:   dtype,
		Loaded:  b.pipeline != nil,
	}
}
