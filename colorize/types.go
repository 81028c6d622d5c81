package colorize

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Network geometry and centering used by the pretrained colorization model.
const (
	// NetInputSize is the fixed width and height of the luminance plane fed to the network.
	NetInputSize = 224

	// LuminanceCenter is subtracted from L (0..100) before inference.
	LuminanceCenter = 50.0

	// ChromaMin and ChromaMax bound the a/b channels before the inverse transform.
	ChromaMin = -128.0
	ChromaMax = 127.0
)

// Slider bounds, in the units the front ends expose.
const (
	MinSlider = -100.0
	MaxSlider = 100.0

	MinWarmth = -50.0
	MaxWarmth = 50.0

	MaxIntensity     = 2.0
	DefaultIntensity = 1.0
)

// Style is a named colour-grading transform applied after colorization.
type Style int

const (
	StyleNatural Style = iota
	StyleVibrant
	StyleVintage
	StyleArtistic
	StyleDramatic
	StyleCinematic
)

var styleNames = [...]string{
	StyleNatural:   "Natural",
	StyleVibrant:   "Vibrant",
	StyleVintage:   "Vintage",
	StyleArtistic:  "Artistic",
	StyleDramatic:  "Dramatic",
	StyleCinematic: "Cinematic",
}

// String returns the display name of the style.
func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// Styles returns every known style in display order.
func Styles() []Style {
	return []Style{StyleNatural, StyleVibrant, StyleVintage, StyleArtistic, StyleDramatic, StyleCinematic}
}

// ParseStyle maps a style name to a Style. Matching is case-insensitive so
// both the API form ("vintage") and the display form ("Vintage") are accepted.
// An empty name yields StyleNatural.
func ParseStyle(name string) (Style, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return StyleNatural, nil
	}
	for i, n := range styleNames {
		if strings.EqualFold(n, name) {
			return Style(i), nil
		}
	}
	return StyleNatural, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	parsed, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Enhancements is the five-slider adjustment vector applied after styling.
// All values are slider units; zero is neutral.
type Enhancements struct {
	Brightness float64 `json:"brightness" yaml:"brightness"` // [-100, 100]
	Contrast   float64 `json:"contrast" yaml:"contrast"`     // [-100, 100]
	Saturation float64 `json:"saturation" yaml:"saturation"` // [-100, 100]
	Warmth     float64 `json:"warmth" yaml:"warmth"`         // [-50, 50]
	Sharpness  float64 `json:"sharpness" yaml:"sharpness"`   // [-100, 100]
}

// IsNeutral reports whether every slider is at its neutral value.
func (e Enhancements) IsNeutral() bool {
	return e == Enhancements{}
}

// Settings is the complete parameter set for one pipeline invocation.
type Settings struct {
	Style        Style        `json:"style" yaml:"style"`
	Intensity    float64      `json:"intensity" yaml:"intensity"`
	Enhancements `yaml:",inline"`
}

// DefaultSettings returns Natural style at intensity 1.0 with neutral sliders.
func DefaultSettings() Settings {
	return Settings{Style: StyleNatural, Intensity: DefaultIntensity}
}

// Validate checks that every parameter lies within its documented range.
// This is a pure function with no side effects.
func (s Settings) Validate() error {
	if s.Style < StyleNatural || s.Style > StyleCinematic {
		return fmt.Errorf("%w: style %d", ErrInvalidSettings, int(s.Style))
	}
	if !(s.Intensity > 0) || s.Intensity > MaxIntensity || math.IsInf(s.Intensity, 0) {
		return fmt.Errorf("%w: intensity %.2f must be in (0, %.1f]", ErrInvalidSettings, s.Intensity, MaxIntensity)
	}

	sliders := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{"brightness", s.Brightness, MinSlider, MaxSlider},
		{"contrast", s.Contrast, MinSlider, MaxSlider},
		{"saturation", s.Saturation, MinSlider, MaxSlider},
		{"warmth", s.Warmth, MinWarmth, MaxWarmth},
		{"sharpness", s.Sharpness, MinSlider, MaxSlider},
	}
	for _, sl := range sliders {
		if math.IsNaN(sl.value) || sl.value < sl.min || sl.value > sl.max {
			return fmt.Errorf("%w: %s %.1f must be between %.0f and %.0f",
				ErrInvalidSettings, sl.name, sl.value, sl.min, sl.max)
		}
	}
	return nil
}

// Plane is a single-channel float32 buffer stored row-major.
type Plane struct {
	Width  int
	Height int
	Data   []float32
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) Plane {
	return Plane{Width: width, Height: height, Data: make([]float32, width*height)}
}

// At returns the sample at (x, y).
func (p Plane) At(x, y int) float32 {
	return p.Data[y*p.Width+x]
}

// Valid reports whether the plane's dimensions agree with its data.
func (p Plane) Valid() bool {
	return p.Width > 0 && p.Height > 0 && len(p.Data) == p.Width*p.Height
}

// Inferencer is the opaque pretrained-model forward pass. Given the centred
// NetInputSize×NetInputSize luminance plane it returns the a and b chrominance
// planes at the network's native output resolution.
//
// Implementations backed by a shared network are not required to be
// re-entrant; callers sharing one instance must serialize calls.
type Inferencer interface {
	Infer(l Plane) (a, b Plane, err error)
}

// InferFunc adapts an ordinary function to the Inferencer interface.
type InferFunc func(l Plane) (a, b Plane, err error)

// Infer calls f(l).
func (f InferFunc) Infer(l Plane) (Plane, Plane, error) {
	return f(l)
}

// Result is the outcome of one pipeline invocation. Image is always set for a
// valid source. When the pipeline fell back to the grayscale image, Degraded
// is true and Err names the cause.
type Result struct {
	Image    *image.RGBA
	Degraded bool
	Err      error
}
