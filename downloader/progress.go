package downloader

import "sync"

// Snapshot is a point-in-time view of one model download, safe to hand to
// callers and callbacks.
type Snapshot struct {
	// ModelID identifies the model being downloaded.
	ModelID string
	// TotalBytes is the expected total download size (0 if unknown).
	TotalBytes int64
	// DownloadedBytes is the byte count transferred so far. Never decreases
	// over the life of a download.
	DownloadedBytes int64
	// CurrentFile is the file currently being transferred.
	CurrentFile string
	// FilesCompleted and FilesTotal track per-file progress.
	FilesCompleted int
	FilesTotal     int
}

// Percentage returns completion as 0-100. Returns 0 when the total size is
// unknown rather than dividing by zero.
func (s Snapshot) Percentage() float64 {
	if s.TotalBytes <= 0 {
		return 0
	}
	pct := float64(s.DownloadedBytes) / float64(s.TotalBytes) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Progress tracks one in-flight model download. Updates come from the
// transfer goroutine; reads can come from any goroutine. A Progress lives
// only for the duration of its download.
type Progress struct {
	mu sync.Mutex

	modelID         string
	totalBytes      int64
	downloadedBytes int64
	fileStartBytes  int64
	currentFile     string
	filesCompleted  int
	filesTotal      int

	onUpdate func(Snapshot)
}

func newProgress(modelID string, totalBytes int64, filesTotal int, onUpdate func(Snapshot)) *Progress {
	return &Progress{
		modelID:    modelID,
		totalBytes: totalBytes,
		filesTotal: filesTotal,
		onUpdate:   onUpdate,
	}
}

// Snapshot returns a consistent copy of the current state.
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() Snapshot {
	return Snapshot{
		ModelID:         p.modelID,
		TotalBytes:      p.totalBytes,
		DownloadedBytes: p.downloadedBytes,
		CurrentFile:     p.currentFile,
		FilesCompleted:  p.filesCompleted,
		FilesTotal:      p.filesTotal,
	}
}

// addBytes increments the downloaded byte count and fires the callback.
// Negative deltas are ignored so the reported count never regresses.
func (p *Progress) addBytes(n int64) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	p.downloadedBytes += n
	snap := p.snapshotLocked()
	cb := p.onUpdate
	p.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// startFile records the file about to be transferred and the byte count it
// starts from, the baseline setResumed works against across retries.
func (p *Progress) startFile(name string) {
	p.mu.Lock()
	p.currentFile = name
	p.fileStartBytes = p.downloadedBytes
	snap := p.snapshotLocked()
	cb := p.onUpdate
	p.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// finishFile marks the current file as complete.
func (p *Progress) finishFile() {
	p.mu.Lock()
	p.filesCompleted++
	p.currentFile = ""
	snap := p.snapshotLocked()
	cb := p.onUpdate
	p.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// setResumed accounts for bytes already on disk when a transfer continues a
// partial file. Bytes a failed attempt already fed through addBytes are part
// of the on-disk size, so the count is raised to the file's baseline plus the
// resume offset rather than incremented, never lowered.
func (p *Progress) setResumed(n int64) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	if resumed := p.fileStartBytes + n; resumed > p.downloadedBytes {
		p.downloadedBytes = resumed
	}
	p.mu.Unlock()
}
