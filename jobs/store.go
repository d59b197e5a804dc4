package jobs

import (
	"sync"
	"time"
)

// Store is the in-memory job table. All mutation goes through its methods
// under one mutex, so a reader never observes a half-written record. The
// store has no package-level instance; the coordinator owns one and passes
// it by handle.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*Job

	ttl    time.Duration
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// StoreOption is a functional option for configuring Store.
type StoreOption func(*Store)

// WithTTL enables eviction of terminal jobs older than ttl. Zero keeps jobs
// for the life of the process.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewStore creates a job store. With a TTL configured, a janitor goroutine
// evicts expired terminal jobs until Close is called.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		jobs:   make(map[string]*Job),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ttl > 0 {
		s.wg.Add(1)
		go s.janitor()
	}
	return s
}

// Close stops the janitor, if any.
func (s *Store) Close() {
	close(s.stopCh)
	s.wg.Wait()
}

// Create registers a new pending job.
func (s *Store) Create(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &Job{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// Get returns a snapshot of a job.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return snapshot(j), true
}

// Len returns the number of tracked jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// MarkProcessing moves a pending job to processing. Calls on jobs in any
// other state are ignored, preserving terminal immutability.
func (s *Store) MarkProcessing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok && j.Status == StatusPending {
		j.Status = StatusProcessing
		j.StartedAt = time.Now()
	}
}

// Complete moves a processing job to completed, recording its result paths
// in the same critical section as the status change.
func (s *Store) Complete(id string, paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok && !j.Status.Terminal() {
		j.Status = StatusCompleted
		j.Result = append([]string(nil), paths...)
		j.FinishedAt = time.Now()
	}
}

// Fail moves a job to failed with the given message. Terminal jobs are left
// untouched.
func (s *Store) Fail(id string, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok && !j.Status.Terminal() {
		j.Status = StatusFailed
		j.Error = msg
		j.FinishedAt = time.Now()
	}
}

// snapshot copies a job record. Callers hold s.mu.
func snapshot(j *Job) Job {
	out := *j
	out.Result = append([]string(nil), j.Result...)
	return out
}

// janitor periodically evicts terminal jobs older than the TTL.
func (s *Store) janitor() {
	defer s.wg.Done()

	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *Store) evictExpired() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if j.Status.Terminal() && j.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}
