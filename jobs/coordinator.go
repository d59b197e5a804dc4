package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AMFbot-Gz/AMFbot-Suite/imagegen"
	"github.com/AMFbot-Gz/AMFbot-Suite/videogen"
)

// ImageBackend generates images. *imagegen.Backend is the production
// implementation.
type ImageBackend interface {
	Generate(ctx context.Context, cfg imagegen.GenerateConfig) ([]string, error)
}

// VideoBackend generates video clips. *videogen.Backend is the production
// implementation.
type VideoBackend interface {
	Generate(ctx context.Context, cfg videogen.GenerateConfig) (string, error)
	GenerateFromImage(ctx context.Context, cfg videogen.GenerateConfig) (string, error)
}

// ImageRequest is a submission for image generation.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Variant        string
	Seed           *int64
	NumImages      int
}

// VideoRequest is a submission for video generation. A non-empty ImagePath
// selects image-to-video.
type VideoRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	NumFrames      int
	Seed           *int64
	ImagePath      string
}

type workItem struct {
	jobID string
	run   func(ctx context.Context) ([]string, error)
}

// Coordinator accepts generation requests, tracks them as jobs, and runs
// them on a bounded worker pool. Submission validates input synchronously
// and returns a job id without waiting for generation.
type Coordinator struct {
	store     *Store
	image     ImageBackend
	video     VideoBackend
	outputDir string
	logger    *zap.Logger

	queue     chan workItem
	mu        sync.Mutex
	closed    bool
	inflight  sync.WaitGroup
	workersWG sync.WaitGroup
}

// CoordinatorOption is a functional option for configuring Coordinator.
type CoordinatorOption func(*coordinatorConfig)

type coordinatorConfig struct {
	workers   int
	queueSize int
	ttl       time.Duration
	logger    *zap.Logger
}

// WithWorkers sets the worker pool size (default 2).
func WithWorkers(n int) CoordinatorOption {
	return func(c *coordinatorConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithJobTTL enables eviction of finished jobs after the given duration.
func WithJobTTL(ttl time.Duration) CoordinatorOption {
	return func(c *coordinatorConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) CoordinatorOption {
	return func(c *coordinatorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a coordinator writing outputs to outputDir. Either
// backend may be nil; submissions for that modality fail with
// ErrUnavailable.
func NewCoordinator(image ImageBackend, video VideoBackend, outputDir string, opts ...CoordinatorOption) *Coordinator {
	cfg := coordinatorConfig{
		workers:   2,
		queueSize: 64,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var storeOpts []StoreOption
	if cfg.ttl > 0 {
		storeOpts = append(storeOpts, WithTTL(cfg.ttl))
	}

	c := &Coordinator{
		store:     NewStore(storeOpts...),
		image:     image,
		video:     video,
		outputDir: outputDir,
		logger:    cfg.logger,
		queue:     make(chan workItem, cfg.queueSize),
	}

	c.workersWG.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go c.worker()
	}
	return c
}

// SubmitImage validates the request and enqueues an image generation job.
// Invalid input creates no job.
func (c *Coordinator) SubmitImage(req ImageRequest) (string, error) {
	if c.image == nil {
		return "", fmt.Errorf("%w: image generation", ErrUnavailable)
	}

	jobID := uuid.NewString()
	cfg := imagegen.GenerateConfig{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Variant:        req.Variant,
		Width:          req.Width,
		Height:         req.Height,
		Seed:           req.Seed,
		NumImages:      req.NumImages,
		OutputPath:     filepath.Join(c.outputDir, jobID+".png"),
	}.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return "", err
	}

	return jobID, c.submit(jobID, func(ctx context.Context) ([]string, error) {
		return c.image.Generate(ctx, cfg)
	})
}

// SubmitVideo validates the request and enqueues a video generation job.
// Invalid input creates no job.
func (c *Coordinator) SubmitVideo(req VideoRequest) (string, error) {
	if c.video == nil {
		return "", fmt.Errorf("%w: video generation", ErrUnavailable)
	}

	jobID := uuid.NewString()
	cfg := videogen.GenerateConfig{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		NumFrames:      req.NumFrames,
		Seed:           req.Seed,
		SourceImage:    req.ImagePath,
		OutputPath:     filepath.Join(c.outputDir, jobID+".mp4"),
	}.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if cfg.SourceImage != "" {
		if _, err := os.Stat(cfg.SourceImage); err != nil {
			return "", fmt.Errorf("%w: cannot open %q: %v", videogen.ErrInvalidSource, cfg.SourceImage, err)
		}
	}

	return jobID, c.submit(jobID, func(ctx context.Context) ([]string, error) {
		var path string
		var err error
		if cfg.SourceImage != "" {
			path, err = c.video.GenerateFromImage(ctx, cfg)
		} else {
			path, err = c.video.Generate(ctx, cfg)
		}
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	})
}

// GetStatus returns a snapshot of a job.
func (c *Coordinator) GetStatus(id string) (Job, error) {
	job, ok := c.store.Get(id)
	if !ok {
		return Job{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return job, nil
}

// ResultPath returns the downloadable output of a completed job. For
// multi-output jobs this is the first path.
func (c *Coordinator) ResultPath(id string) (string, error) {
	job, ok := c.store.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if job.Status != StatusCompleted || len(job.Result) == 0 {
		return "", fmt.Errorf("%w: job %q is %s", ErrInvalidState, id, job.Status)
	}

	path := job.Result[0]
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: output file for job %q is gone", ErrNotFound, id)
	}
	return path, nil
}

// Close stops intake, waits for accepted jobs to finish, and shuts the
// worker pool down.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.inflight.Wait()
	close(c.queue)
	c.workersWG.Wait()
	c.store.Close()
}

// submit creates the pending job and hands the work item to the pool. The
// request path never blocks on a full queue; overflow is handed off to a
// goroutine that waits for capacity.
func (c *Coordinator) submit(jobID string, run func(ctx context.Context) ([]string, error)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.store.Create(jobID)
	c.inflight.Add(1)
	c.mu.Unlock()

	item := workItem{jobID: jobID, run: run}
	select {
	case c.queue <- item:
	default:
		go func() { c.queue <- item }()
	}

	c.logger.Debug("job submitted", zap.String("job_id", jobID))
	return nil
}

func (c *Coordinator) worker() {
	defer c.workersWG.Done()
	for item := range c.queue {
		c.process(item)
		c.inflight.Done()
	}
}

// process runs one job to a terminal state. A panicking backend fails the
// job instead of crashing the process.
func (c *Coordinator) process(item workItem) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("job panicked",
				zap.String("job_id", item.jobID),
				zap.Any("panic", r))
			c.store.Fail(item.jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	c.store.MarkProcessing(item.jobID)

	paths, err := item.run(context.Background())
	if err != nil {
		c.logger.Warn("job failed",
			zap.String("job_id", item.jobID),
			zap.Error(err))
		c.store.Fail(item.jobID, err.Error())
		return
	}

	c.store.Complete(item.jobID, paths)
	c.logger.Info("job completed",
		zap.String("job_id", item.jobID),
		zap.Strings("outputs", paths))
}
