//go:build gocv

package imageio

import (
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"
)

func encodeWebP(w io.Writer, img image.Image, quality int) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("webp: convert image: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.WEBPFileExt, mat, []int{gocv.IMWriteWebpQuality, quality})
	if err != nil {
		return fmt.Errorf("webp: encode: %w", err)
	}
	defer buf.Close()

	_, err = w.Write(buf.GetBytes())
	return err
}

// CanEncodeWebP reports whether this build can write WebP.
func CanEncodeWebP() bool { return true }
