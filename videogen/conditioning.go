package videogen

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// loadConditioningImage reads and decodes the source image for
// image-to-video, then resizes it to the output dimensions.
func loadConditioningImage(path string, width, height int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %q: %v", ErrInvalidSource, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode %q: %v", ErrInvalidSource, path, err)
	}

	return resizeImage(img, width, height), nil
}

// resizeImage scales img to exactly width x height. The aspect ratio follows
// the output dimensions, matching how the model consumes its conditioning
// frame.
func resizeImage(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
