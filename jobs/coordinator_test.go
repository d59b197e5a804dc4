package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AMFbot-Gz/AMFbot-Suite/imagegen"
	"github.com/AMFbot-Gz/AMFbot-Suite/videogen"
)

// fakeImageBackend records calls and writes a stub output file on success.
// A non-nil gate blocks Generate until the channel is closed.
type fakeImageBackend struct {
	mu       sync.Mutex
	calls    int
	gate     chan struct{}
	err      error
	panicMsg string
}

func (f *fakeImageBackend) Generate(_ context.Context, cfg imagegen.GenerateConfig) ([]string, error) {
	f.mu.Lock()
	f.calls++
	panicMsg, genErr := f.panicMsg, f.err
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if genErr != nil {
		return nil, genErr
	}
	if err := os.WriteFile(cfg.OutputPath, []byte("png"), 0o644); err != nil {
		return nil, err
	}
	return []string{cfg.OutputPath}, nil
}

func (f *fakeImageBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeVideoBackend struct {
	mu         sync.Mutex
	textCalls  int
	imageCalls int
	lastSource string
	err        error
}

func (f *fakeVideoBackend) Generate(_ context.Context, cfg videogen.GenerateConfig) (string, error) {
	f.mu.Lock()
	f.textCalls++
	f.mu.Unlock()
	return f.render(cfg)
}

func (f *fakeVideoBackend) GenerateFromImage(_ context.Context, cfg videogen.GenerateConfig) (string, error) {
	f.mu.Lock()
	f.imageCalls++
	f.lastSource = cfg.SourceImage
	f.mu.Unlock()
	return f.render(cfg)
}

func (f *fakeVideoBackend) render(cfg videogen.GenerateConfig) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := os.WriteFile(cfg.OutputPath, []byte("mp4"), 0o644); err != nil {
		return "", err
	}
	return cfg.OutputPath, nil
}

func waitTerminal(t *testing.T, c *Coordinator, id string) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := c.GetStatus(id)
		if err != nil {
			t.Fatalf("GetStatus(%q): %v", id, err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %q did not reach a terminal state", id)
	return Job{}
}

func TestCoordinatorImageJob(t *testing.T) {
	backend := &fakeImageBackend{}
	c := NewCoordinator(backend, nil, t.TempDir())
	defer c.Close()

	id, err := c.SubmitImage(ImageRequest{Prompt: "a lighthouse at dusk"})
	if err != nil {
		t.Fatalf("SubmitImage failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a job id")
	}

	job := waitTerminal(t, c, id)
	if job.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %s)", job.Status, job.Error)
	}
	if len(job.Result) != 1 {
		t.Fatalf("result paths = %d, want 1", len(job.Result))
	}
	if filepath.Base(job.Result[0]) != id+".png" {
		t.Errorf("output file = %q, want %q", filepath.Base(job.Result[0]), id+".png")
	}

	path, err := c.ResultPath(id)
	if err != nil {
		t.Fatalf("ResultPath failed: %v", err)
	}
	if path != job.Result[0] {
		t.Errorf("ResultPath = %q, want %q", path, job.Result[0])
	}
}

func TestCoordinatorVideoJobModes(t *testing.T) {
	backend := &fakeVideoBackend{}
	dir := t.TempDir()
	c := NewCoordinator(nil, backend, dir)
	defer c.Close()

	source := filepath.Join(dir, "source.png")
	if err := os.WriteFile(source, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	textID, err := c.SubmitVideo(VideoRequest{Prompt: "waves on a shore"})
	if err != nil {
		t.Fatalf("text-to-video submit failed: %v", err)
	}
	imageID, err := c.SubmitVideo(VideoRequest{Prompt: "waves on a shore", ImagePath: source})
	if err != nil {
		t.Fatalf("image-to-video submit failed: %v", err)
	}

	if job := waitTerminal(t, c, textID); job.Status != StatusCompleted {
		t.Fatalf("text job status = %q (error: %s)", job.Status, job.Error)
	}
	if job := waitTerminal(t, c, imageID); job.Status != StatusCompleted {
		t.Fatalf("image job status = %q (error: %s)", job.Status, job.Error)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.textCalls != 1 {
		t.Errorf("Generate calls = %d, want 1", backend.textCalls)
	}
	if backend.imageCalls != 1 {
		t.Errorf("GenerateFromImage calls = %d, want 1", backend.imageCalls)
	}
	if backend.lastSource != source {
		t.Errorf("source image = %q, want %q", backend.lastSource, source)
	}
}

func TestCoordinatorVideoMissingSourceImage(t *testing.T) {
	backend := &fakeVideoBackend{}
	c := NewCoordinator(nil, backend, t.TempDir())
	defer c.Close()

	missing := filepath.Join(t.TempDir(), "missing.png")
	_, err := c.SubmitVideo(VideoRequest{Prompt: "waves on a shore", ImagePath: missing})
	if !errors.Is(err, videogen.ErrInvalidSource) {
		t.Fatalf("SubmitVideo error = %v, want ErrInvalidSource", err)
	}

	if n := c.store.Len(); n != 0 {
		t.Errorf("store holds %d jobs after invalid submission, want 0", n)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.imageCalls != 0 {
		t.Errorf("GenerateFromImage calls = %d, want 0", backend.imageCalls)
	}
}

func TestCoordinatorInvalidInputCreatesNoJob(t *testing.T) {
	backend := &fakeImageBackend{}
	c := NewCoordinator(backend, nil, t.TempDir())
	defer c.Close()

	if _, err := c.SubmitImage(ImageRequest{Prompt: "too small", Width: 10}); err == nil {
		t.Fatal("expected error for out-of-range width")
	}
	if _, err := c.SubmitImage(ImageRequest{}); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if _, err := c.SubmitVideo(VideoRequest{Prompt: "short", NumFrames: 10}); err == nil {
		t.Fatal("expected error for out-of-range frame count")
	}

	if n := c.store.Len(); n != 0 {
		t.Errorf("store holds %d jobs after rejected submissions, want 0", n)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times for rejected submissions", backend.callCount())
	}
}

func TestCoordinatorNilBackendUnavailable(t *testing.T) {
	c := NewCoordinator(nil, nil, t.TempDir())
	defer c.Close()

	if _, err := c.SubmitImage(ImageRequest{Prompt: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("SubmitImage error = %v, want ErrUnavailable", err)
	}
	if _, err := c.SubmitVideo(VideoRequest{Prompt: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("SubmitVideo error = %v, want ErrUnavailable", err)
	}
}

func TestCoordinatorBackendErrorFailsJob(t *testing.T) {
	backend := &fakeImageBackend{err: errors.New("weights corrupted")}
	c := NewCoordinator(backend, nil, t.TempDir())
	defer c.Close()

	id, err := c.SubmitImage(ImageRequest{Prompt: "doomed"})
	if err != nil {
		t.Fatalf("SubmitImage failed: %v", err)
	}

	job := waitTerminal(t, c, id)
	if job.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "weights corrupted") {
		t.Errorf("error = %q, want backend message preserved", job.Error)
	}

	if _, err := c.ResultPath(id); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ResultPath error = %v, want ErrInvalidState", err)
	}
}

func TestCoordinatorPanicRecovery(t *testing.T) {
	backend := &fakeImageBackend{panicMsg: "index out of range"}
	c := NewCoordinator(backend, nil, t.TempDir())
	defer c.Close()

	id, err := c.SubmitImage(ImageRequest{Prompt: "boom"})
	if err != nil {
		t.Fatalf("SubmitImage failed: %v", err)
	}

	job := waitTerminal(t, c, id)
	if job.Status != StatusFailed {
		t.Fatalf("status = %q, want failed after panic", job.Status)
	}
	if !strings.Contains(job.Error, "internal error") {
		t.Errorf("error = %q, want internal error marker", job.Error)
	}

	// The pool survives the panic.
	followup, err := c.SubmitImage(ImageRequest{Prompt: "still alive"})
	if err != nil {
		t.Fatalf("submit after panic failed: %v", err)
	}
	backend.mu.Lock()
	backend.panicMsg = ""
	backend.mu.Unlock()
	_ = waitTerminal(t, c, followup)
}

func TestCoordinatorJobStartsPending(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeImageBackend{gate: gate}
	c := NewCoordinator(backend, nil, t.TempDir(), WithWorkers(1))
	defer c.Close()

	// The first job occupies the only worker; the second stays pending.
	first, err := c.SubmitImage(ImageRequest{Prompt: "first"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.SubmitImage(ImageRequest{Prompt: "second"})
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		job, err := c.GetStatus(first)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status == StatusProcessing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first job never started processing")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if job, _ := c.GetStatus(second); job.Status != StatusPending {
		t.Errorf("queued job status = %q, want pending", job.Status)
	}

	close(gate)
	if job := waitTerminal(t, c, second); job.Status != StatusCompleted {
		t.Errorf("second job status = %q (error: %s)", job.Status, job.Error)
	}
}

func TestCoordinatorCloseDrainsAndRejects(t *testing.T) {
	backend := &fakeImageBackend{}
	c := NewCoordinator(backend, nil, t.TempDir())

	id, err := c.SubmitImage(ImageRequest{Prompt: "last one out"})
	if err != nil {
		t.Fatal(err)
	}

	c.Close()

	job, err := c.GetStatus(id)
	if err != nil {
		t.Fatal(err)
	}
	if !job.Status.Terminal() {
		t.Errorf("status after Close = %q, want terminal", job.Status)
	}

	if _, err := c.SubmitImage(ImageRequest{Prompt: "too late"}); !errors.Is(err, ErrClosed) {
		t.Errorf("submit after Close error = %v, want ErrClosed", err)
	}

	// Close is idempotent.
	c.Close()
}

func TestCoordinatorResultPathErrors(t *testing.T) {
	backend := &fakeImageBackend{}
	c := NewCoordinator(backend, nil, t.TempDir())
	defer c.Close()

	if _, err := c.ResultPath("no-such-job"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}

	id, err := c.SubmitImage(ImageRequest{Prompt: "then vanish"})
	if err != nil {
		t.Fatal(err)
	}
	job := waitTerminal(t, c, id)
	if job.Status != StatusCompleted {
		t.Fatalf("status = %q (error: %s)", job.Status, job.Error)
	}

	if err := os.Remove(job.Result[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ResultPath(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}
}
