// Command amfbot-suite runs the media generation service: an HTTP API that
// turns prompts into images and video clips, downloading model weights on
// demand and tracking every request as an asynchronous job.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AMFbot-Gz/AMFbot-Suite/catalog"
	"github.com/AMFbot-Gz/AMFbot-Suite/core"
	"github.com/AMFbot-Gz/AMFbot-Suite/downloader"
	"github.com/AMFbot-Gz/AMFbot-Suite/imagegen"
	"github.com/AMFbot-Gz/AMFbot-Suite/jobs"
	"github.com/AMFbot-Gz/AMFbot-Suite/logging"
	"github.com/AMFbot-Gz/AMFbot-Suite/metrics"
	"github.com/AMFbot-Gz/AMFbot-Suite/server"
	"github.com/AMFbot-Gz/AMFbot-Suite/shutdown"
	"github.com/AMFbot-Gz/AMFbot-Suite/videogen"
)

func main() {
	if HandleServiceCommand(os.Args[1:]) {
		return
	}

	ranAsService, err := RunAsService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "service: %v\n", err)
		os.Exit(1)
	}
	if ranAsService {
		return
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires the whole service together and blocks until ctx is cancelled
// or a shutdown signal arrives.
func run(ctx context.Context) error {
	// Optional; environment variables win over the file.
	_ = godotenv.Load()

	cfg, err := core.LoadConfig()
	if err != nil {
		return err
	}

	defaultLevel := zapcore.InfoLevel
	if cfg.DevMode {
		defaultLevel = zapcore.DebugLevel
	}
	logger, err := logging.New(logging.Config{
		Level:       logging.LevelFromEnv("AMFBOT_LOG_LEVEL", defaultLevel),
		FilePath:    cfg.LogFile,
		Development: cfg.DevMode,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logging.Sync(logger)

	logger.Info("configuration loaded",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("output_dir", cfg.OutputDir),
		zap.String("models_dir", cfg.ModelsDir),
		zap.Int("job_workers", cfg.JobWorkers),
		zap.Duration("job_ttl", cfg.JobTTL),
		zap.String("video_model", cfg.VideoModelID),
		zap.Bool("remote_image_api", cfg.ImageAPIURL != ""),
		zap.Bool("dev_mode", cfg.DevMode),
	)

	for _, dir := range []string{cfg.OutputDir, cfg.ModelsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	registry := catalog.Builtin()
	if cfg.CatalogPath != "" {
		registry, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("model catalog: %w", err)
		}
		logger.Info("model catalog loaded from file",
			zap.String("path", cfg.CatalogPath),
			zap.Int("models", len(registry.All())))
	}

	probe := metrics.NewProbe(nil)
	device, _ := probe.Device()
	logger.Info("compute device selected",
		zap.String("device", device),
		zap.Bool("gpu_available", probe.Available()))

	manager := downloader.NewManager(cfg.ModelsDir, registry,
		downloader.WithToken(cfg.HFToken),
		downloader.WithMaxConcurrent(cfg.MaxConcurrentDownloads),
		downloader.WithLogger(logger.Named("downloader")),
	)

	imageFactory := imagegen.LocalFactory
	if cfg.ImageAPIURL != "" {
		imageFactory = imagegen.RemoteFactory(imagegen.RemoteConfig{
			BaseURL: cfg.ImageAPIURL,
			APIKey:  cfg.ImageAPIKey,
		})
	}
	imageBackend, err := imagegen.NewBackend(manager, imageFactory,
		imagegen.WithRegistry(registry),
		imagegen.WithProbe(probe),
		imagegen.WithLogger(logger.Named("imagegen")),
	)
	if err != nil {
		return fmt.Errorf("image backend: %w", err)
	}

	videoBackend, err := videogen.NewBackend(manager, videogen.LocalFactory,
		videogen.WithModelID(cfg.VideoModelID),
		videogen.WithRegistry(registry),
		videogen.WithProbe(probe),
		videogen.WithLogger(logger.Named("videogen")),
	)
	if err != nil {
		return fmt.Errorf("video backend: %w", err)
	}

	coordinator := jobs.NewCoordinator(imageBackend, videoBackend, cfg.OutputDir,
		jobs.WithWorkers(cfg.JobWorkers),
		jobs.WithJobTTL(cfg.JobTTL),
		jobs.WithLogger(logger.Named("jobs")),
	)

	api := server.NewAPI(coordinator, imageBackend, videoBackend, manager, logger.Named("api"))
	srv := server.New(server.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		LogSkipPaths: []string{"/health"},
	}, api, logger.Named("http"))

	sd := shutdown.NewManager(logger)
	sd.Register("http-server", 10, srv.Shutdown)
	sd.Register("job-coordinator", 20, func(ctx context.Context) error {
		coordinator.Close()
		return nil
	})
	sd.Register("model-backends", 30, func(ctx context.Context) error {
		imageBackend.Unload()
		videoBackend.Unload()
		return nil
	})
	sd.Start()

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("http server failed", zap.Error(err))
			sd.Trigger()
		}
	}()

	go func() {
		<-ctx.Done()
		sd.Trigger()
	}()

	logger.Info("service ready", zap.String("addr", srv.Addr()))
	sd.Wait()
	return sd.Shutdown()
}
