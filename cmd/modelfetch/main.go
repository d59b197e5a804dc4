// Command modelfetch manages model weights from the command line: list the
// catalog, check what is on disk, and download one model or all of them
// ahead of first use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AMFbot-Gz/AMFbot-Suite/catalog"
	"github.com/AMFbot-Gz/AMFbot-Suite/core"
	"github.com/AMFbot-Gz/AMFbot-Suite/downloader"
)

func main() {
	flag.Usage = usage
	verbose := flag.Bool("v", false, "verbose logging")
	force := flag.Bool("force", false, "re-download even when weights are already present")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if err := runCommand(flag.Arg(0), flag.Args()[1:], *verbose, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: modelfetch [flags] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  list                 Show the model catalog")
	fmt.Fprintln(os.Stderr, "  status               Show which models are downloaded")
	fmt.Fprintln(os.Stderr, "  download <model-id>  Download one model's weights")
	fmt.Fprintln(os.Stderr, "  download-all         Download every model in the catalog")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func runCommand(command string, args []string, verbose, force bool) error {
	_ = godotenv.Load()

	cfg, err := core.LoadConfig()
	if err != nil {
		return err
	}

	registry := catalog.Builtin()
	if cfg.CatalogPath != "" {
		registry, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("model catalog: %w", err)
		}
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}

	manager := downloader.NewManager(cfg.ModelsDir, registry,
		downloader.WithToken(cfg.HFToken),
		downloader.WithMaxConcurrent(cfg.MaxConcurrentDownloads),
		downloader.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "list":
		return listModels(registry)
	case "status":
		return showStatus(registry, manager)
	case "download":
		if len(args) != 1 {
			return fmt.Errorf("download needs exactly one model id")
		}
		return downloadOne(ctx, manager, args[0], force)
	case "download-all":
		return downloadAll(ctx, registry, manager, force)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func listModels(registry *catalog.Registry) error {
	bold := color.New(color.Bold)

	bold.Printf("%-22s %-8s %-12s %s\n", "MODEL", "TYPE", "SIZE", "REPO")
	for _, desc := range registry.All() {
		fmt.Printf("%-22s %-8s %-12s %s\n",
			desc.ID,
			desc.Modality,
			core.FormatBytes(desc.SizeBytes),
			desc.RepoID)
	}
	return nil
}

func showStatus(registry *catalog.Registry, manager *downloader.Manager) error {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	for _, desc := range registry.All() {
		dir, err := manager.Path(desc.ID)
		switch {
		case err == nil:
			green.Printf("  ✓ %-22s", desc.ID)
			fmt.Printf(" %s\n", dir)
		case errors.Is(err, downloader.ErrNotDownloaded):
			yellow.Printf("  ✗ %-22s", desc.ID)
			fmt.Printf(" not downloaded (%s)\n", core.FormatBytes(desc.SizeBytes))
		default:
			return err
		}
	}
	return nil
}

func downloadOne(ctx context.Context, manager *downloader.Manager, id string, force bool) error {
	fmt.Printf("Downloading %s...\n", id)

	path, err := manager.Download(ctx, id, downloader.DownloadOptions{
		Force:      force,
		OnProgress: printProgress,
	})
	fmt.Println()
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("Done: %s\n", path)
	return nil
}

func downloadAll(ctx context.Context, registry *catalog.Registry, manager *downloader.Manager, force bool) error {
	ids := make([]string, 0, len(registry.All()))
	for _, desc := range registry.All() {
		ids = append(ids, desc.ID)
	}

	fmt.Printf("Downloading %d models...\n", len(ids))
	results := manager.DownloadAll(ctx, ids, downloader.DownloadOptions{Force: force})

	var failed int
	for id, res := range results {
		if res.Err != nil {
			failed++
			color.New(color.FgRed).Printf("  ✗ %-22s %v\n", id, res.Err)
		} else {
			color.New(color.FgGreen).Printf("  ✓ %-22s %s\n", id, res.Path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(ids))
	}
	return nil
}

// printProgress redraws a single status line as a download advances.
func printProgress(s downloader.Snapshot) {
	fmt.Printf("\r  [%3.0f%%] %s / %s  (file %d/%d) %-40s",
		s.Percentage(),
		core.FormatBytes(s.DownloadedBytes),
		core.FormatBytes(s.TotalBytes),
		s.FilesCompleted,
		s.FilesTotal,
		s.CurrentFile)
}
