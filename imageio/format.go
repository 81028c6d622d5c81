// Package imageio is the colorizer's image boundary: it sniffs, decodes and
// encodes raster files so that the pipeline only ever sees image.Image.
package imageio

import (
	"path/filepath"
	"strings"
)

// Format identifies a raster file format.
type Format string

// Supported formats.
const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
	FormatGIF  Format = "gif"
)

// Quality bounds and the default used by the web API.
const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 95
	PreviewQuality = 85
)

var extFormats = map[string]Format{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".bmp":  FormatBMP,
	".tiff": FormatTIFF,
	".tif":  FormatTIFF,
	".webp": FormatWebP,
}

// SupportedExts lists accepted input file extensions.
func SupportedExts() []string {
	return []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".webp"}
}

// IsSupportedExt reports whether the path has an accepted image extension.
// The comparison is case-insensitive.
func IsSupportedExt(path string) bool {
	_, ok := extFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, bool) {
	f, ok := extFormats[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// ParseFormat accepts a format name or extension such as "JPG" or ".tif".
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	return FormatFromPath(s)
}

// Ext returns the canonical file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatTIFF:
		return ".tiff"
	case "":
		return ""
	default:
		return "." + string(f)
	}
}

// MIME returns the media type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	case FormatWebP:
		return "image/webp"
	case FormatGIF:
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
