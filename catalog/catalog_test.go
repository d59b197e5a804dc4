package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinRegistry(t *testing.T) {
	r := Builtin()

	t.Run("contains all four models", func(t *testing.T) {
		if got := len(r.All()); got != 4 {
			t.Fatalf("len(All()) = %d, want 4", got)
		}
		for _, id := range []string{LTXVideoDistilled, LTXVideoFull, FluxFast, FluxQuality} {
			if _, ok := r.Lookup(id); !ok {
				t.Errorf("Lookup(%q) not found", id)
			}
		}
	})

	t.Run("lookup unknown id", func(t *testing.T) {
		if _, ok := r.Lookup("sd-turbo"); ok {
			t.Error("Lookup() found unregistered model")
		}
	})

	t.Run("modality split", func(t *testing.T) {
		images := r.ByModality(ModalityImage)
		videos := r.ByModality(ModalityVideo)
		if len(images) != 2 || len(videos) != 2 {
			t.Errorf("ByModality() = %d images, %d videos, want 2 and 2", len(images), len(videos))
		}
		for _, d := range images {
			if d.Modality != ModalityImage {
				t.Errorf("model %q in image list has modality %q", d.ID, d.Modality)
			}
		}
	})

	t.Run("descriptors have sane sizes", func(t *testing.T) {
		for _, d := range r.All() {
			if d.SizeBytes <= 0 {
				t.Errorf("model %q has SizeBytes %d", d.ID, d.SizeBytes)
			}
			if d.RepoID == "" {
				t.Errorf("model %q has empty RepoID", d.ID)
			}
		}
	})
}

func TestNewValidation(t *testing.T) {
	valid := Descriptor{
		ID:             "test-model",
		Name:           "Test Model",
		RepoID:         "org/test-model",
		Modality:       ModalityImage,
		SizeBytes:      1024,
		MinMemoryBytes: 512,
	}

	tests := []struct {
		name    string
		models  []Descriptor
		wantErr bool
	}{
		{"single valid model", []Descriptor{valid}, false},
		{"empty registry", nil, true},
		{
			"duplicate ids",
			[]Descriptor{valid, valid},
			true,
		},
		{
			"empty id",
			[]Descriptor{{Modality: ModalityImage, SizeBytes: 1}},
			true,
		},
		{
			"invalid modality",
			[]Descriptor{{ID: "x", Modality: "audio", SizeBytes: 1}},
			true,
		},
		{
			"zero size",
			[]Descriptor{{ID: "x", Modality: ModalityImage, SizeBytes: 0}},
			true,
		},
		{
			"negative min memory",
			[]Descriptor{{ID: "x", Modality: ModalityImage, SizeBytes: 1, MinMemoryBytes: -1}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.models)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestImageVariantModel(t *testing.T) {
	tests := []struct {
		variant string
		want    string
		wantErr bool
	}{
		{VariantFast, FluxFast, false},
		{VariantQuality, FluxQuality, false},
		{"turbo", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run("variant "+tt.variant, func(t *testing.T) {
			got, err := ImageVariantModel(tt.variant)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ImageVariantModel(%q) error = %v, wantErr %v", tt.variant, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ImageVariantModel(%q) = %q, want %q", tt.variant, got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	writeCatalog := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write catalog file: %v", err)
		}
		return path
	}

	t.Run("valid catalog", func(t *testing.T) {
		path := writeCatalog(t, `models:
  - id: custom-image
    name: Custom Image Model
    repo_id: myorg/custom-image
    modality: image
    size_bytes: 1073741824
    min_memory_bytes: 536870912
  - id: custom-video
    name: Custom Video Model
    repo_id: myorg/custom-video
    modality: video
    size_bytes: 2147483648
`)
		r, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if got := len(r.All()); got != 2 {
			t.Fatalf("len(All()) = %d, want 2", got)
		}
		d, ok := r.Lookup("custom-image")
		if !ok {
			t.Fatal("Lookup(custom-image) not found")
		}
		if d.RepoID != "myorg/custom-image" {
			t.Errorf("RepoID = %q, want %q", d.RepoID, "myorg/custom-image")
		}
		if d.SizeBytes != 1073741824 {
			t.Errorf("SizeBytes = %d, want 1073741824", d.SizeBytes)
		}
	})

	t.Run("replaces builtin models", func(t *testing.T) {
		path := writeCatalog(t, `models:
  - id: only-model
    name: Only
    repo_id: org/only
    modality: video
    size_bytes: 1024
`)
		r, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if _, ok := r.Lookup(FluxFast); ok {
			t.Error("Lookup(flux-fast) found in override catalog")
		}
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		path := writeCatalog(t, `models:
  - id: dup
    repo_id: org/a
    modality: image
    size_bytes: 1
  - id: dup
    repo_id: org/b
    modality: image
    size_bytes: 1
`)
		if _, err := LoadFile(path); err == nil {
			t.Error("LoadFile() expected error for duplicate ids")
		}
	})

	t.Run("invalid modality rejected", func(t *testing.T) {
		path := writeCatalog(t, `models:
  - id: bad
    repo_id: org/bad
    modality: audio
    size_bytes: 1
`)
		if _, err := LoadFile(path); err == nil {
			t.Error("LoadFile() expected error for invalid modality")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeCatalog(t, "models: [unclosed")
		if _, err := LoadFile(path); err == nil {
			t.Error("LoadFile() expected error for malformed yaml")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("LoadFile() expected error for missing file")
		}
	})
}
