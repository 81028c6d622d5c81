package imageio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// sniffedFormats maps filetype extensions to the formats we decode.
var sniffedFormats = map[string]Format{
	"jpg":  FormatJPEG,
	"png":  FormatPNG,
	"gif":  FormatGIF,
	"bmp":  FormatBMP,
	"tif":  FormatTIFF,
	"webp": FormatWebP,
}

// Sniff identifies the raster format from the leading bytes.
// This is a pure function with no side effects.
func Sniff(data []byte) (Format, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", ErrUnsupportedFormat
	}
	f, ok := sniffedFormats[kind.Extension]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
	}
	return f, nil
}

// Decode sniffs and decodes an image buffer.
// This is a pure function with no side effects.
func Decode(data []byte) (image.Image, Format, error) {
	format, err := Sniff(data)
	if err != nil {
		return nil, "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if img.Bounds().Empty() {
		return nil, format, ErrEmptyImage
	}
	return img, format, nil
}

// Load reads and decodes an image file.
func Load(path string) (image.Image, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, format, fmt.Errorf("%s: %w", path, err)
	}
	return img, format, nil
}
