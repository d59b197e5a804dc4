package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk catalog format:
//
//	models:
//	  - id: my-model
//	    name: My Model
//	    repo_id: org/my-model
//	    modality: image
//	    size_bytes: 12884901888
//	    min_memory_bytes: 6442450944
type yamlFile struct {
	Models []yamlModel `yaml:"models"`
}

type yamlModel struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	RepoID         string `yaml:"repo_id"`
	Modality       string `yaml:"modality"`
	SizeBytes      int64  `yaml:"size_bytes"`
	MinMemoryBytes int64  `yaml:"min_memory_bytes"`
}

// LoadFile reads a YAML catalog file and returns a registry built from it.
// The file replaces the built-in registry entirely; entries are validated
// with the same rules as New.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read catalog file %q: %w", path, err)
	}

	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse catalog file %q: %w", path, err)
	}

	models := make([]Descriptor, 0, len(f.Models))
	for _, m := range f.Models {
		models = append(models, Descriptor{
			ID:             m.ID,
			Name:           m.Name,
			RepoID:         m.RepoID,
			Modality:       Modality(m.Modality),
			SizeBytes:      m.SizeBytes,
			MinMemoryBytes: m.MinMemoryBytes,
		})
	}

	r, err := New(models)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid catalog file %q: %w", path, err)
	}
	return r, nil
}
