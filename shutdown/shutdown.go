// Package shutdown coordinates graceful teardown: a cancellable root
// context tied to SIGINT/SIGTERM and an ordered registry of cleanup
// functions. A second signal forces immediate exit.
package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Func is one cleanup step, run with a deadline during shutdown.
type Func func(ctx context.Context) error

type entry struct {
	name     string
	priority int
	fn       Func
}

// Manager owns the process lifecycle. Components derive from Context()
// and register cleanup with Register(); main blocks on Wait() and then
// calls Shutdown().
type Manager struct {
	logger  *zap.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	entries  []entry
	started  bool
	finished bool
	signals  int

	sigChan chan os.Signal
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout bounds the whole shutdown sequence (default 60s).
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewManager creates a Manager. Start must be called before OS signals
// trigger shutdown.
func NewManager(logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:  logger,
		timeout: 60 * time.Second,
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context returns the root context, cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priorities run first. Calls
// after Shutdown are ignored.
func (m *Manager) Register(name string, priority int, fn Func) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finished {
		return
	}
	m.entries = append(m.entries, entry{name: name, priority: priority, fn: fn})
	m.logger.Debug("shutdown handler registered",
		zap.String("name", name),
		zap.Int("priority", priority))
}

// Start begins listening for SIGINT and SIGTERM. The first signal cancels
// the root context; the second exits immediately. Safe to call once; later
// calls are no-ops.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range m.sigChan {
			m.mu.Lock()
			m.signals++
			count := m.signals
			m.mu.Unlock()

			if count == 1 {
				m.logger.Info("shutdown signal received",
					zap.String("signal", sig.String()))
				m.cancel()
				continue
			}
			m.logger.Warn("second signal received, forcing exit")
			os.Exit(1)
		}
	}()
}

// Wait blocks until shutdown is initiated.
func (m *Manager) Wait() {
	<-m.ctx.Done()
}

// Trigger initiates shutdown without an OS signal.
func (m *Manager) Trigger() {
	m.cancel()
}

// Shutdown runs the registered cleanup functions in priority order under
// one deadline. Every function runs even when earlier ones fail; the
// first error count is reported. Idempotent.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.finished {
		m.mu.Unlock()
		return nil
	}
	m.finished = true
	sorted := make([]entry, len(m.entries))
	copy(sorted, m.entries)
	m.mu.Unlock()

	m.cancel()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	start := time.Now()
	m.logger.Info("shutting down",
		zap.Int("handlers", len(sorted)),
		zap.Duration("timeout", m.timeout))

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var failed int
	for _, e := range sorted {
		if err := e.fn(ctx); err != nil {
			failed++
			m.logger.Error("cleanup failed",
				zap.String("name", e.name),
				zap.Error(err))
		}
	}

	signal.Stop(m.sigChan)

	if failed > 0 {
		return fmt.Errorf("shutdown: %d of %d handlers failed", failed, len(sorted))
	}
	m.logger.Info("shutdown complete", zap.Duration("duration", time.Since(start)))
	return nil
}
