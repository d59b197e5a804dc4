package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GenerationMetrics captures what one generation run cost. Implements
// zapcore.ObjectMarshaler so it logs as a nested object.
type GenerationMetrics struct {
	// ModelID is the catalog id that produced the output.
	ModelID string
	// Variant is the speed/quality tier, empty for video runs.
	Variant string
	// Output geometry.
	Width  int
	Height int
	// Steps is the number of denoising steps; Frames is zero for images.
	Steps  int
	Frames int
	// Seed the run was pinned to.
	Seed int64
	// Duration is wall time for the whole run, load excluded.
	Duration time.Duration
}

// StepsPerSecond is throughput over the run, zero for a zero duration.
func (m GenerationMetrics) StepsPerSecond() float64 {
	secs := m.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(m.Steps) / secs
}

func (m GenerationMetrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("model_id", m.ModelID)
	if m.Variant != "" {
		enc.AddString("variant", m.Variant)
	}
	enc.AddInt("width", m.Width)
	enc.AddInt("height", m.Height)
	enc.AddInt("steps", m.Steps)
	if m.Frames > 0 {
		enc.AddInt("frames", m.Frames)
	}
	enc.AddInt64("seed", m.Seed)
	enc.AddInt64("duration_ms", m.Duration.Milliseconds())
	enc.AddFloat64("steps_per_second", m.StepsPerSecond())
	return nil
}

// GenerationFields wraps metrics in a ready-to-use zap field.
func GenerationFields(m GenerationMetrics) zap.Field {
	return zap.Object("generation", m)
}
