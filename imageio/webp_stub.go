//go:build !gocv

package imageio

import (
	"fmt"
	"image"
	"io"
)

func encodeWebP(w io.Writer, img image.Image, quality int) error {
	return fmt.Errorf("%w: webp (rebuild with -tags gocv)", ErrEncodeUnsupported)
}

// CanEncodeWebP reports whether this build can write WebP.
func CanEncodeWebP() bool { return false }
