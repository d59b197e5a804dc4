package imagegen

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// OutputPaths expands a base output path into one path per image. A single
// image uses the base path exactly; a batch numbers the outputs before the
// extension: out.png -> out_0.png, out_1.png, ...
func OutputPaths(base string, n int) []string {
	if n <= 1 {
		return []string{base}
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		paths = append(paths, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
	return paths
}

// savePNG encodes img to path, creating parent directories as needed.
func savePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}
