package imagegen

import "errors"

// Model lifecycle errors
var (
	ErrInvalidVariant = errors.New("imagegen: invalid model variant")
	ErrLoadFailed     = errors.New("imagegen: failed to load pipeline")
)

// Generation errors
var (
	ErrInvalidParams    = errors.New("imagegen: invalid generation parameters")
	ErrGenerationFailed = errors.New("imagegen: image generation failed")
	ErrSaveFailed       = errors.New("imagegen: failed to save output")
)
