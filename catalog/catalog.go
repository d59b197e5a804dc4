// Package catalog defines the model registry: which model weights exist,
// where they come from, and what they need to run. The built-in registry
// covers the supported image and video models; a YAML file can replace it
// for deployments that host their own weights.
package catalog

import (
	"fmt"

	"github.com/AMFbot-Gz/AMFbot-Suite/core"
)

// Modality identifies what a model produces.
type Modality string

const (
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
)

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	return m == ModalityImage || m == ModalityVideo
}

// Descriptor describes one downloadable model. Descriptors are immutable
// after process start; the registry hands out copies.
type Descriptor struct {
	// ID is the stable identifier used in configuration and download paths.
	ID string
	// Name is the human-readable model name.
	Name string
	// RepoID is the remote repository the weights are fetched from.
	RepoID string
	// Modality is what the model generates (image or video).
	Modality Modality
	// SizeBytes is the approximate on-disk size of the full weight set.
	SizeBytes int64
	// MinMemoryBytes is the minimum GPU memory recommended to load the model.
	MinMemoryBytes int64
}

// Image generation variants and the catalog entries they resolve to.
const (
	VariantFast    = "fast"
	VariantQuality = "quality"
)

// Built-in model identifiers.
const (
	LTXVideoDistilled = "ltx-video-distilled"
	LTXVideoFull      = "ltx-video-full"
	FluxFast          = "flux-fast"
	FluxQuality       = "flux-quality"
)

// builtinModels is the default registry content, in display order.
var builtinModels = []Descriptor{
	{
		ID:             LTXVideoDistilled,
		Name:           "LTX-Video 0.9.8 Distilled",
		RepoID:         "Lightricks/LTX-Video-0.9.8-distilled",
		Modality:       ModalityVideo,
		SizeBytes:      8*core.BytesPerGB + 512*core.BytesPerMB,
		MinMemoryBytes: 8 * core.BytesPerGB,
	},
	{
		ID:             LTXVideoFull,
		Name:           "LTX-Video (full)",
		RepoID:         "Lightricks/LTX-Video",
		Modality:       ModalityVideo,
		SizeBytes:      26 * core.BytesPerGB,
		MinMemoryBytes: 16 * core.BytesPerGB,
	},
	{
		ID:             FluxFast,
		Name:           "FLUX.1 Schnell",
		RepoID:         "black-forest-labs/FLUX.1-schnell",
		Modality:       ModalityImage,
		SizeBytes:      12 * core.BytesPerGB,
		MinMemoryBytes: 6 * core.BytesPerGB,
	},
	{
		ID:             FluxQuality,
		Name:           "FLUX.1 Dev",
		RepoID:         "black-forest-labs/FLUX.1-dev",
		Modality:       ModalityImage,
		SizeBytes:      24 * core.BytesPerGB,
		MinMemoryBytes: 12 * core.BytesPerGB,
	},
}

// Registry holds an immutable set of model descriptors keyed by ID.
type Registry struct {
	order []string
	byID  map[string]Descriptor
}

// New builds a registry from the given descriptors, validating each entry.
// IDs must be unique, modalities valid, and sizes positive.
func New(models []Descriptor) (*Registry, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("catalog: registry must contain at least one model")
	}

	r := &Registry{byID: make(map[string]Descriptor, len(models))}
	for i, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("catalog: model at index %d has empty id", i)
		}
		if _, exists := r.byID[m.ID]; exists {
			return nil, fmt.Errorf("catalog: duplicate model id %q", m.ID)
		}
		if !m.Modality.Valid() {
			return nil, fmt.Errorf("catalog: model %q has invalid modality %q (want image or video)", m.ID, m.Modality)
		}
		if m.SizeBytes <= 0 {
			return nil, fmt.Errorf("catalog: model %q has non-positive size %d", m.ID, m.SizeBytes)
		}
		if m.MinMemoryBytes < 0 {
			return nil, fmt.Errorf("catalog: model %q has negative min memory %d", m.ID, m.MinMemoryBytes)
		}
		r.byID[m.ID] = m
		r.order = append(r.order, m.ID)
	}
	return r, nil
}

// Builtin returns a registry populated with the default models.
func Builtin() *Registry {
	r, err := New(builtinModels)
	if err != nil {
		// builtinModels is a compile-time constant set; failure here is a bug.
		panic(err)
	}
	return r
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// All returns every descriptor in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// ByModality returns descriptors matching m, in registration order.
func (r *Registry) ByModality(m Modality) []Descriptor {
	var out []Descriptor
	for _, id := range r.order {
		if d := r.byID[id]; d.Modality == m {
			out = append(out, d)
		}
	}
	return out
}

// ImageVariantModel maps an image generation variant to its catalog model id.
func ImageVariantModel(variant string) (string, error) {
	switch variant {
	case VariantFast:
		return FluxFast, nil
	case VariantQuality:
		return FluxQuality, nil
	default:
		return "", fmt.Errorf("catalog: unknown image variant %q (valid: %s, %s)", variant, VariantFast, VariantQuality)
	}
}
