package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/AMFbot-Gz/AMFbot-Suite/core"
)

// transferOptions configures a single file transfer.
type transferOptions struct {
	// URL to download from.
	URL string
	// DestPath is the local file path to save to.
	DestPath string
	// Token is an optional bearer token for gated repositories.
	Token string
	// Client is the HTTP client to use.
	Client *http.Client
	// Progress receives byte counts as they arrive (optional).
	Progress *Progress
}

// transferFile downloads one file with resume support. An existing partial
// file is continued via a Range request; servers that reject the range cause
// a fresh download from byte zero.
func transferFile(ctx context.Context, opts transferOptions) error {
	return transfer(ctx, opts, true)
}

func transfer(ctx context.Context, opts transferOptions, resume bool) error {
	if err := os.MkdirAll(filepath.Dir(opts.DestPath), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	var resumeFrom int64
	if resume {
		if info, err := os.Stat(opts.DestPath); err == nil {
			resumeFrom = info.Size()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", core.BuildRangeHeader(resumeFrom))
	}

	resp, err := opts.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	var resumed bool
	switch resp.StatusCode {
	case http.StatusOK:
		// Server sent the full file; any partial content starts over.
		resumeFrom = 0

	case http.StatusPartialContent:
		resumed = true

	case http.StatusRequestedRangeNotSatisfiable:
		// The partial file may already be complete, but without a length to
		// trust, start fresh.
		_ = os.Remove(opts.DestPath)
		return transfer(ctx, opts, false)

	default:
		return fmt.Errorf("%w: unexpected status %d for %s", ErrTransferFailed, resp.StatusCode, opts.URL)
	}

	var file *os.File
	if resumed {
		file, err = os.OpenFile(opts.DestPath, os.O_APPEND|os.O_WRONLY, 0o644)
		if opts.Progress != nil {
			opts.Progress.setResumed(resumeFrom)
		}
	} else {
		file, err = os.Create(opts.DestPath)
	}
	if err != nil {
		return fmt.Errorf("failed to open destination file: %w", err)
	}
	defer file.Close()

	reader := &progressReader{reader: resp.Body, progress: opts.Progress}
	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("download interrupted: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}

// progressReader wraps an io.Reader to feed byte counts into a Progress.
type progressReader struct {
	reader   io.Reader
	progress *Progress
}

func (r *progressReader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	if n > 0 && r.progress != nil {
		r.progress.addBytes(int64(n))
	}
	return n, err
}
