package colorize

import "errors"

// Sentinel errors for pipeline operations.
var (
	// Input errors
	ErrEmptyImage      = errors.New("colorize: image has no pixels")
	ErrInvalidSettings = errors.New("colorize: invalid settings")
	ErrUnknownStyle    = errors.New("colorize: unknown style")

	// Degradation causes, reported through Result.Err
	ErrInferenceFailed  = errors.New("colorize: inference failed")
	ErrInvalidChroma    = errors.New("colorize: inference returned malformed chrominance")
	ErrInverseTransform = errors.New("colorize: Lab to RGB produced non-finite values")
)
