package imageio

import "errors"

// Image boundary errors
var (
	ErrEmptyImage        = errors.New("imageio: empty image data")
	ErrUnsupportedFormat = errors.New("imageio: unsupported image format")
	ErrInvalidImage      = errors.New("imageio: invalid image data")
	ErrEncodeUnsupported = errors.New("imageio: encoding not supported for format")
	ErrInvalidQuality    = errors.New("imageio: quality must be between 1 and 100")
)
