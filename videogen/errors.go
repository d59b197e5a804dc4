package videogen

import "errors"

// Model lifecycle errors
var (
	ErrLoadFailed = errors.New("videogen: failed to load pipeline")
)

// Generation errors
var (
	ErrInvalidParams    = errors.New("videogen: invalid generation parameters")
	ErrInvalidSource    = errors.New("videogen: invalid source image")
	ErrGenerationFailed = errors.New("videogen: video generation failed")
	ErrSaveFailed       = errors.New("videogen: failed to save output")
)
