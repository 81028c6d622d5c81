package imageio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Encode writes img in the given format. Quality is the JPEG quality and,
// for PNG, selects the compression level as quality/10 on a 0..9 scale.
// TIFF is written with Deflate compression. WebP requires the gocv build.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	if quality < MinQuality || quality > MaxQuality {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngLevel(quality)}
		return enc.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatWebP:
		return encodeWebP(w, img, quality)
	default:
		return fmt.Errorf("%w: %q", ErrEncodeUnsupported, format)
	}
}

// pngLevel maps quality/10 (0..9, zlib levels) onto the encoder's levels.
// This is a pure function with no side effects.
func pngLevel(quality int) png.CompressionLevel {
	switch level := quality / 10; {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// Save encodes img into path, choosing the format from the extension.
// Missing parent directories are created.
func Save(path string, img image.Image, quality int) error {
	format, ok := FormatFromPath(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// EncodeBase64JPEG returns img as a base64 JPEG payload.
func EncodeBase64JPEG(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatJPEG, quality); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
