package metrics

import "sync"

// Device identifiers used across the generation backends.
const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// Dtype identifiers matching the device selection.
const (
	DtypeBFloat16 = "bfloat16"
	DtypeFloat32  = "float32"
)

// Probe answers "is there a usable GPU" once and caches the result for the
// life of the process. Availability does not flap between generations; a
// restart re-detects.
type Probe struct {
	reader GPUReader

	once      sync.Once
	available bool

	mu   sync.Mutex
	last GPUMetrics
}

// NewProbe creates a probe backed by the given reader. A nil reader uses
// nvidia-smi from PATH.
func NewProbe(reader GPUReader) *Probe {
	if reader == nil {
		reader = &NvidiaSMIReader{}
	}
	return &Probe{reader: reader}
}

// Available reports whether a GPU was detected. The first call performs the
// detection; subsequent calls return the cached answer.
func (p *Probe) Available() bool {
	p.once.Do(func() {
		m, err := p.reader.ReadGPUMetrics()
		if err == nil {
			p.available = true
			p.mu.Lock()
			p.last = m
			p.mu.Unlock()
		}
	})
	return p.available
}

// Device returns the compute device and tensor dtype to use.
func (p *Probe) Device() (device, dtype string) {
	if p.Available() {
		return DeviceCUDA, DtypeBFloat16
	}
	return DeviceCPU, DtypeFloat32
}

// Metrics returns a fresh GPU readout when available, or the zero value
// when no GPU was detected. Failed refreshes fall back to the last good
// sample so callers always see a consistent snapshot.
func (p *Probe) Metrics() GPUMetrics {
	if !p.Available() {
		return GPUMetrics{}
	}

	m, err := p.reader.ReadGPUMetrics()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		p.last = m
	}
	return p.last
}

// FreeMemory returns free GPU memory in bytes, or 0 when no GPU is available.
func (p *Probe) FreeMemory() int64 {
	return p.Metrics().MemoryFree
}
