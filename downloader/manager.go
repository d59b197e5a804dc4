// Package downloader fetches model weights from a hub and manages their
// on-disk layout. A model is "downloaded" only when its completion marker
// exists; partial directories are resumed or overwritten on the next attempt.
package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AMFbot-Gz/AMFbot-Suite/catalog"
	"github.com/AMFbot-Gz/AMFbot-Suite/core"
)

// MarkerFilename is the completion marker written after a successful
// download. Its presence, not the directory's, is the source of truth.
const MarkerFilename = ".download_complete"

// DefaultBaseURL is the weight hub queried for manifests and files.
const DefaultBaseURL = "https://huggingface.co"

// DownloadOptions configures a single model download.
type DownloadOptions struct {
	// Force re-downloads even when the completion marker exists.
	Force bool
	// OnProgress is invoked with progress snapshots as bytes arrive
	// (optional). Called from the transfer goroutine.
	OnProgress func(Snapshot)
}

// Result is the outcome of one model in a batch download.
type Result struct {
	// Path is the model directory on success.
	Path string
	// Err is the failure, nil on success.
	Err error
}

// Manager downloads model weights into a local directory tree laid out as
// <modelsDir>/<modality>/<id>/.
type Manager struct {
	modelsDir       string
	registry        *catalog.Registry
	client          *http.Client
	logger          *zap.Logger
	baseURL         string
	token           string
	maxConcurrent   int
	maxRetries      int
	baseRetryDelay  time.Duration
	diskSpaceBuffer int

	mu     sync.Mutex
	active map[string]*Progress
}

// Option is a functional option for configuring Manager.
type Option func(*Manager)

// WithHTTPClient sets the HTTP client used for manifest and file requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		if c != nil {
			m.client = c
		}
	}
}

// WithBaseURL overrides the weight hub base URL.
func WithBaseURL(u string) Option {
	return func(m *Manager) {
		if u != "" {
			m.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithToken sets the bearer token sent with hub requests, required for
// gated repositories.
func WithToken(t string) Option {
	return func(m *Manager) { m.token = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMaxConcurrent bounds the DownloadAll worker pool.
func WithMaxConcurrent(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxConcurrent = n
		}
	}
}

// WithMaxRetries sets the per-file retry attempt count.
func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetries = n
		}
	}
}

// WithBaseRetryDelay sets the initial retry delay (doubles each attempt).
func WithBaseRetryDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.baseRetryDelay = d
		}
	}
}

// WithDiskSpaceBuffer sets the free-space headroom percentage checked
// before a transfer starts.
func WithDiskSpaceBuffer(percent int) Option {
	return func(m *Manager) {
		if percent >= 0 {
			m.diskSpaceBuffer = percent
		}
	}
}

// NewManager creates a download manager rooted at modelsDir, resolving model
// ids through the given registry.
//
// Default behavior:
//   - 2 concurrent downloads in DownloadAll
//   - 3 retry attempts per file with exponential backoff (2s, 4s, 8s)
//   - 10% disk space buffer
func NewManager(modelsDir string, registry *catalog.Registry, opts ...Option) *Manager {
	m := &Manager{
		modelsDir:       modelsDir,
		registry:        registry,
		client:          &http.Client{},
		logger:          zap.NewNop(),
		baseURL:         DefaultBaseURL,
		maxConcurrent:   2,
		maxRetries:      3,
		baseRetryDelay:  2 * time.Second,
		diskSpaceBuffer: 10,
		active:          make(map[string]*Progress),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ModelDir returns the directory a model's weights live in (whether or not
// they have been downloaded yet).
func (m *Manager) ModelDir(id string) (string, error) {
	desc, ok := m.registry.Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	return filepath.Join(m.modelsDir, string(desc.Modality), desc.ID), nil
}

// IsDownloaded reports whether a model's completion marker exists. A
// directory full of files without the marker is treated as not downloaded.
func (m *Manager) IsDownloaded(id string) bool {
	dir, err := m.ModelDir(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, MarkerFilename))
	return err == nil
}

// Path returns the weight directory of a downloaded model. A model without
// its completion marker reports ErrNotDownloaded.
func (m *Manager) Path(id string) (string, error) {
	dir, err := m.ModelDir(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(dir, MarkerFilename)); err != nil {
		return "", fmt.Errorf("%w: %q", ErrNotDownloaded, id)
	}
	return dir, nil
}

// Download fetches a model's weights and returns the model directory.
// Already-downloaded models return immediately unless opts.Force is set.
// A second Download call for a model that is already in flight fails with
// ErrDownloadInProgress.
func (m *Manager) Download(ctx context.Context, id string, opts DownloadOptions) (string, error) {
	desc, ok := m.registry.Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}

	dir := filepath.Join(m.modelsDir, string(desc.Modality), desc.ID)
	markerPath := filepath.Join(dir, MarkerFilename)

	if !opts.Force {
		if _, err := os.Stat(markerPath); err == nil {
			m.logger.Debug("model already downloaded",
				zap.String("model", id),
				zap.String("path", dir))
			return dir, nil
		}
	}

	manifest, err := m.fetchManifest(ctx, desc.RepoID)
	if err != nil {
		return "", err
	}

	var totalBytes int64
	for _, f := range manifest {
		totalBytes += f.Size
	}

	progress := newProgress(id, totalBytes, len(manifest), opts.OnProgress)
	if err := m.registerActive(id, progress); err != nil {
		return "", err
	}
	defer m.unregisterActive(id)

	if err := core.CheckDiskSpace(dir, desc.SizeBytes, m.diskSpaceBuffer); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInsufficientSpace, err)
	}

	if opts.Force {
		// Force discards any previous attempt so stale files cannot survive.
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("downloader: failed to clear model directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("downloader: failed to create model directory: %w", err)
	}

	m.logger.Info("starting model download",
		zap.String("model", id),
		zap.String("repo", desc.RepoID),
		zap.Int("files", len(manifest)),
		zap.String("size", core.FormatBytes(totalBytes)))

	for _, f := range manifest {
		destPath, err := safeJoin(dir, f.Name)
		if err != nil {
			return "", err
		}
		progress.startFile(f.Name)
		if err := m.transferWithRetry(ctx, desc.RepoID, f.Name, destPath, progress); err != nil {
			return "", err
		}
		if f.SHA256 != "" {
			ok, err := core.VerifyChecksum(destPath, f.SHA256)
			if err != nil {
				return "", fmt.Errorf("%w: verifying %s: %v", ErrChecksumMismatch, f.Name, err)
			}
			if !ok {
				os.Remove(destPath)
				return "", fmt.Errorf("%w: %s", ErrChecksumMismatch, f.Name)
			}
		}
		progress.finishFile()
	}

	if err := os.WriteFile(markerPath, []byte(desc.RepoID+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("downloader: failed to write completion marker: %w", err)
	}

	m.logger.Info("model download complete",
		zap.String("model", id),
		zap.String("path", dir))
	return dir, nil
}

// DownloadAll downloads several models with bounded concurrency. Every id
// gets a Result; one model's failure never aborts its siblings. The
// options apply to each model; OnProgress snapshots carry the model id.
func (m *Manager) DownloadAll(ctx context.Context, ids []string, opts DownloadOptions) map[string]Result {
	results := make(map[string]Result, len(ids))
	var resultsMu sync.Mutex

	sem := make(chan struct{}, m.maxConcurrent)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			path, err := m.Download(ctx, id, opts)
			resultsMu.Lock()
			results[id] = Result{Path: path, Err: err}
			resultsMu.Unlock()
		}(id)
	}
	wg.Wait()
	return results
}

// Remove deletes a model's directory, marker included.
func (m *Manager) Remove(id string) error {
	dir, err := m.ModelDir(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("downloader: failed to remove model %q: %w", id, err)
	}
	m.logger.Info("removed model", zap.String("model", id), zap.String("path", dir))
	return nil
}

// ActiveDownloads returns snapshots of every download currently in flight.
func (m *Manager) ActiveDownloads() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Snapshot, 0, len(m.active))
	for _, p := range m.active {
		out = append(out, p.Snapshot())
	}
	return out
}

func (m *Manager) registerActive(id string, p *Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.active[id]; exists {
		return fmt.Errorf("%w: %q", ErrDownloadInProgress, id)
	}
	m.active[id] = p
	return nil
}

func (m *Manager) unregisterActive(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, id)
}

// manifestFile is one entry in a repository's file listing. SHA256 is
// empty when the hub does not publish a hash for the file.
type manifestFile struct {
	Name   string
	Size   int64
	SHA256 string
}

// fetchManifest queries the hub API for the repository's file list.
func (m *Manager) fetchManifest(ctx context.Context, repoID string) ([]manifestFile, error) {
	url := fmt.Sprintf("%s/api/models/%s", m.baseURL, repoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestFailed, err)
	}
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for %s", ErrManifestFailed, resp.StatusCode, repoID)
	}

	var body struct {
		Siblings []struct {
			Rfilename string `json:"rfilename"`
			Size      int64  `json:"size"`
			SHA256    string `json:"sha256"`
		} `json:"siblings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestFailed, err)
	}
	if len(body.Siblings) == 0 {
		return nil, fmt.Errorf("%w: repository %s lists no files", ErrManifestFailed, repoID)
	}

	files := make([]manifestFile, 0, len(body.Siblings))
	for _, s := range body.Siblings {
		if s.Rfilename == "" {
			continue
		}
		files = append(files, manifestFile{Name: s.Rfilename, Size: s.Size, SHA256: s.SHA256})
	}
	return files, nil
}

// transferWithRetry downloads one file, retrying with exponential backoff.
// Resume picks up partial files between attempts.
func (m *Manager) transferWithRetry(ctx context.Context, repoID, name, destPath string, progress *Progress) error {
	url := fmt.Sprintf("%s/%s/resolve/main/%s", m.baseURL, repoID, name)

	var lastErr error
	delay := m.baseRetryDelay
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		lastErr = transferFile(ctx, transferOptions{
			URL:      url,
			DestPath: destPath,
			Token:    m.token,
			Client:   m.client,
			Progress: progress,
		})
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}

		m.logger.Warn("file transfer failed, retrying",
			zap.String("file", name),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		if attempt < m.maxRetries {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return fmt.Errorf("downloader: %s failed after %d attempts: %w", name, m.maxRetries, lastErr)
}

// safeJoin joins a manifest-relative filename under dir, rejecting names
// that would escape it.
func safeJoin(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("downloader: unsafe filename in manifest: %q", name)
	}
	return filepath.Join(dir, cleaned), nil
}
