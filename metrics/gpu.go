// Package metrics provides GPU state readout used for device selection and
// the models/info endpoint. GPU metrics come from nvidia-smi; systems without
// it simply report no GPU and the service falls back to CPU.
package metrics

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// GPUMetrics holds a single GPU readout sample.
type GPUMetrics struct {
	// Name is the GPU product name reported by the driver.
	Name string
	// Utilization is the GPU utilization percentage (0-100).
	Utilization float64
	// MemoryTotal is total GPU memory in bytes.
	MemoryTotal int64
	// MemoryUsed is used GPU memory in bytes.
	MemoryUsed int64
	// MemoryFree is free GPU memory in bytes.
	MemoryFree int64
}

// GPUReader is the interface for reading GPU metrics.
// This abstraction allows for mock implementations during testing.
type GPUReader interface {
	// ReadGPUMetrics reads the current GPU metrics.
	// Returns an error if the GPU is unavailable or metrics cannot be read.
	ReadGPUMetrics() (GPUMetrics, error)
}

// NvidiaSMIReader reads GPU metrics by executing nvidia-smi.
type NvidiaSMIReader struct {
	// Path to the nvidia-smi executable. Empty uses "nvidia-smi" from PATH.
	Path string
	// Timeout bounds each nvidia-smi invocation. Zero means 5 seconds.
	Timeout time.Duration
}

// ReadGPUMetrics queries nvidia-smi for the first GPU's state.
func (r *NvidiaSMIReader) ReadGPUMetrics() (GPUMetrics, error) {
	path := r.Path
	if path == "" {
		path = "nvidia-smi"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path,
		"--query-gpu=name,utilization.gpu,memory.used,memory.total",
		"--format=csv,noheader,nounits")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return GPUMetrics{}, fmt.Errorf("nvidia-smi failed: %w (stderr: %s)", err, stderr.String())
	}

	return parseNvidiaSMIOutput(stdout.String())
}

// parseNvidiaSMIOutput parses the CSV output from nvidia-smi.
// Only the first GPU line is used.
func parseNvidiaSMIOutput(output string) (GPUMetrics, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return GPUMetrics{}, fmt.Errorf("empty nvidia-smi output")
	}

	reader := csv.NewReader(strings.NewReader(output))
	record, err := reader.Read()
	if err != nil {
		return GPUMetrics{}, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(record) < 4 {
		return GPUMetrics{}, fmt.Errorf("unexpected field count: got %d, expected 4", len(record))
	}

	name := strings.TrimSpace(record[0])

	util, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return GPUMetrics{}, fmt.Errorf("failed to parse utilization: %w", err)
	}

	// memory.used and memory.total are reported in MiB
	memUsedMiB, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return GPUMetrics{}, fmt.Errorf("failed to parse memory used: %w", err)
	}

	memTotalMiB, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return GPUMetrics{}, fmt.Errorf("failed to parse memory total: %w", err)
	}

	const mibToBytes = 1024 * 1024
	memTotal := int64(memTotalMiB * mibToBytes)
	memUsed := int64(memUsedMiB * mibToBytes)

	return GPUMetrics{
		Name:        name,
		Utilization: util,
		MemoryTotal: memTotal,
		MemoryUsed:  memUsed,
		MemoryFree:  memTotal - memUsed,
	}, nil
}

// MockGPUReader is a mock implementation of GPUReader for testing.
type MockGPUReader struct {
	mu      sync.Mutex
	metrics GPUMetrics
	err     error
	calls   int
}

// NewMockGPUReader creates a new mock GPU reader with the specified metrics.
func NewMockGPUReader(metrics GPUMetrics) *MockGPUReader {
	return &MockGPUReader{metrics: metrics}
}

// SetError sets an error to be returned by ReadGPUMetrics.
func (m *MockGPUReader) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ReadGPUMetrics returns the configured mock metrics or error.
func (m *MockGPUReader) ReadGPUMetrics() (GPUMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return GPUMetrics{}, m.err
	}
	return m.metrics, nil
}

// CallCount returns the number of times ReadGPUMetrics was called.
func (m *MockGPUReader) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
