package colorize

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// netOutputSize mirrors the 56×56 chrominance output of the Caffe model.
const netOutputSize = 56

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), uint8((x + y) % 256), 255})
		}
	}
	return img
}

// zeroChroma returns all-zero a/b planes.
var zeroChroma = InferFunc(func(l Plane) (Plane, Plane, error) {
	return NewPlane(netOutputSize, netOutputSize), NewPlane(netOutputSize, netOutputSize), nil
})

// luminanceChroma derives chrominance from the input so output depends on it.
var luminanceChroma = InferFunc(func(l Plane) (Plane, Plane, error) {
	small := ResizeBilinear(l, netOutputSize, netOutputSize)
	a := NewPlane(netOutputSize, netOutputSize)
	b := NewPlane(netOutputSize, netOutputSize)
	for i, v := range small.Data {
		a.Data[i] = v * 0.8
		b.Data[i] = -v * 0.5
	}
	return a, b, nil
})

func TestColorize_PreservesDimensions(t *testing.T) {
	sizes := []struct {
		name string
		w, h int
	}{
		{"single pixel", 1, 1},
		{"thin", 7, 3},
		{"landscape", 300, 200},
		{"network size", NetInputSize, NetInputSize},
		{"portrait", 90, 160},
	}

	for _, sz := range sizes {
		t.Run(sz.name, func(t *testing.T) {
			res, err := Colorize(gradientImage(sz.w, sz.h), luminanceChroma, DefaultSettings())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Degraded {
				t.Fatalf("unexpected degradation: %v", res.Err)
			}
			b := res.Image.Bounds()
			if b.Dx() != sz.w || b.Dy() != sz.h {
				t.Errorf("expected %dx%d, got %dx%d", sz.w, sz.h, b.Dx(), b.Dy())
			}
		})
	}
}

func TestColorize_NonZeroOriginBounds(t *testing.T) {
	src := gradientImage(40, 30).SubImage(image.Rect(10, 5, 30, 25))

	res, err := Colorize(src, zeroChroma, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Image.Bounds(); got != image.Rect(0, 0, 20, 20) {
		t.Errorf("expected 20x20 at origin, got %v", got)
	}
}

func TestColorize_NaturalNeutralIsDeterministic(t *testing.T) {
	src := gradientImage(64, 48)

	first, err := Colorize(src, luminanceChroma, DefaultSettings())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Colorize(src, luminanceChroma, DefaultSettings())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !bytes.Equal(first.Image.Pix, second.Image.Pix) {
		t.Error("expected byte-identical output for identical inputs")
	}
}

func TestColorize_DoesNotMutateSource(t *testing.T) {
	src := gradientImage(32, 32)
	before := make([]byte, len(src.Pix))
	copy(before, src.Pix)

	settings := DefaultSettings()
	settings.Style = StyleDramatic
	settings.Brightness = 40
	settings.Sharpness = 30

	if _, err := Colorize(src, luminanceChroma, settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(before, src.Pix) {
		t.Error("source image was modified")
	}
}

func TestColorize_MidGrayZeroChroma(t *testing.T) {
	src := uniformImage(100, 100, color.RGBA{128, 128, 128, 255})

	res, err := Colorize(src, zeroChroma, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Degraded {
		t.Fatalf("unexpected degradation: %v", res.Err)
	}

	for i := 0; i < len(res.Image.Pix); i += 4 {
		r, g, b := int(res.Image.Pix[i]), int(res.Image.Pix[i+1]), int(res.Image.Pix[i+2])
		for _, v := range []int{r, g, b} {
			if v < 127 || v > 128 {
				t.Fatalf("pixel %d: expected neutral gray near 128, got (%d,%d,%d)", i/4, r, g, b)
			}
		}
		if absInt(r-g) > 1 || absInt(g-b) > 1 {
			t.Fatalf("pixel %d: expected no colour shift, got (%d,%d,%d)", i/4, r, g, b)
		}
	}
}

func TestColorize_VintageOnWhite(t *testing.T) {
	src := uniformImage(4, 4, color.RGBA{255, 255, 255, 255})
	settings := DefaultSettings()
	settings.Style = StyleVintage

	res, err := Colorize(src, zeroChroma, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Row sums 1.351, 1.203, 0.937: red and green saturate, blue truncates to 238.
	got := res.Image.RGBAAt(2, 2)
	if got.R != 255 || got.G != 255 || got.B != 238 {
		t.Errorf("expected (255,255,238), got (%d,%d,%d)", got.R, got.G, got.B)
	}
}

func TestColorize_ClampsWithoutWraparound(t *testing.T) {
	tests := []struct {
		name       string
		brightness float64
		contrast   float64
		want       uint8
	}{
		{"overexposed", 100, 100, 255},
		{"underexposed", -100, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.Brightness = tt.brightness
			settings.Contrast = tt.contrast

			res, err := Colorize(uniformImage(8, 8, color.RGBA{128, 128, 128, 255}), zeroChroma, settings)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := 0; i < len(res.Image.Pix); i += 4 {
				for c := 0; c < 3; c++ {
					if res.Image.Pix[i+c] != tt.want {
						t.Fatalf("expected %d, got %d", tt.want, res.Image.Pix[i+c])
					}
				}
			}
		})
	}
}

func TestColorize_EveryStyleStaysInRange(t *testing.T) {
	// Extreme chroma exercises the clamp before the inverse transform.
	extreme := InferFunc(func(l Plane) (Plane, Plane, error) {
		a := NewPlane(netOutputSize, netOutputSize)
		b := NewPlane(netOutputSize, netOutputSize)
		for i := range a.Data {
			a.Data[i] = 900
			b.Data[i] = float32(math.Inf(-1))
		}
		return a, b, nil
	})

	for _, style := range Styles() {
		t.Run(style.String(), func(t *testing.T) {
			settings := Settings{
				Style:     style,
				Intensity: MaxIntensity,
				Enhancements: Enhancements{
					Brightness: 100, Contrast: 100, Saturation: 100, Warmth: 50, Sharpness: 100,
				},
			}
			res, err := Colorize(gradientImage(20, 20), extreme, settings)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Degraded {
				t.Fatalf("clamped chroma should not degrade: %v", res.Err)
			}
			for i := 3; i < len(res.Image.Pix); i += 4 {
				if res.Image.Pix[i] != 0xff {
					t.Fatal("expected opaque output")
				}
			}
		})
	}
}

func TestColorize_WarmthAsymmetry(t *testing.T) {
	src := uniformImage(10, 10, color.RGBA{128, 128, 128, 255})

	run := func(warmth float64) color.RGBA {
		settings := DefaultSettings()
		settings.Warmth = warmth
		res, err := Colorize(src, zeroChroma, settings)
		if err != nil {
			t.Fatalf("warmth %.0f: %v", warmth, err)
		}
		return res.Image.RGBAAt(5, 5)
	}

	warm := run(50)
	cool := run(-50)

	if warm.R <= warm.B {
		t.Errorf("warmth +50: expected red > blue, got R=%d B=%d", warm.R, warm.B)
	}
	if cool.B <= cool.R {
		t.Errorf("warmth -50: expected blue > red, got R=%d B=%d", cool.R, cool.B)
	}
	// +50 boosts red by 1.5 and cuts blue to 0.75; -50 mirrors it.
	if absInt(int(warm.R)-192) > 1 || absInt(int(warm.B)-96) > 1 {
		t.Errorf("warmth +50: expected about (192,_,96), got (%d,_,%d)", warm.R, warm.B)
	}
	if absInt(int(cool.R)-96) > 1 || absInt(int(cool.B)-192) > 1 {
		t.Errorf("warmth -50: expected about (96,_,192), got (%d,_,%d)", cool.R, cool.B)
	}
}

func TestColorize_Degradation(t *testing.T) {
	boom := errors.New("forward pass exploded")

	tests := []struct {
		name    string
		infer   Inferencer
		wantErr error
	}{
		{
			name: "inference error",
			infer: InferFunc(func(Plane) (Plane, Plane, error) {
				return Plane{}, Plane{}, boom
			}),
			wantErr: ErrInferenceFailed,
		},
		{
			name: "inference panic",
			infer: InferFunc(func(Plane) (Plane, Plane, error) {
				panic("cgo crash")
			}),
			wantErr: ErrInferenceFailed,
		},
		{
			name:    "nil inferencer",
			infer:   nil,
			wantErr: ErrInferenceFailed,
		},
		{
			name: "mismatched planes",
			infer: InferFunc(func(Plane) (Plane, Plane, error) {
				return NewPlane(56, 56), NewPlane(28, 28), nil
			}),
			wantErr: ErrInvalidChroma,
		},
		{
			name: "NaN chroma",
			infer: InferFunc(func(Plane) (Plane, Plane, error) {
				a := NewPlane(56, 56)
				for i := range a.Data {
					a.Data[i] = float32(math.NaN())
				}
				return a, NewPlane(56, 56), nil
			}),
			wantErr: ErrInverseTransform,
		},
	}

	src := gradientImage(30, 20)
	want := Grayscale(src)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.Style = StyleVibrant
			settings.Brightness = 50

			res, err := Colorize(src, tt.infer, settings)
			if err != nil {
				t.Fatalf("degradation must not return an error, got: %v", err)
			}
			if !res.Degraded {
				t.Fatal("expected Degraded result")
			}
			if !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("expected %v, got: %v", tt.wantErr, res.Err)
			}
			if res.Image == nil || !bytes.Equal(res.Image.Pix, want.Pix) {
				t.Error("expected the Stage 1 grayscale image")
			}
		})
	}
}

func TestColorize_InvalidInput(t *testing.T) {
	if _, err := Colorize(image.NewRGBA(image.Rect(0, 0, 0, 0)), zeroChroma, DefaultSettings()); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got: %v", err)
	}
	if _, err := Colorize(nil, zeroChroma, DefaultSettings()); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage for nil image, got: %v", err)
	}

	bad := DefaultSettings()
	bad.Warmth = 75
	if _, err := Colorize(gradientImage(4, 4), zeroChroma, bad); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got: %v", err)
	}
}

func TestColorize_InferenceReceivesCentredNetworkPlane(t *testing.T) {
	var got Plane
	spy := InferFunc(func(l Plane) (Plane, Plane, error) {
		got = l
		return zeroChroma(l)
	})

	// Black input has L=0, so every centred sample is -50.
	if _, err := Colorize(uniformImage(500, 300, color.RGBA{0, 0, 0, 255}), spy, DefaultSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Width != NetInputSize || got.Height != NetInputSize {
		t.Fatalf("expected %dx%d plane, got %dx%d", NetInputSize, NetInputSize, got.Width, got.Height)
	}
	for _, v := range got.Data {
		if math.Abs(float64(v)+LuminanceCenter) > 1e-4 {
			t.Fatalf("expected -50, got %f", v)
		}
	}
}

func TestGrayscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 1))
	src.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	src.SetRGBA(1, 0, color.RGBA{0, 255, 0, 255})
	src.SetRGBA(2, 0, color.RGBA{90, 90, 90, 255})

	gray := Grayscale(src)

	want := []uint8{76, 150, 90}
	for x, w := range want {
		c := gray.RGBAAt(x, 0)
		if c.R != w || c.G != w || c.B != w || c.A != 0xff {
			t.Errorf("pixel %d: expected gray %d, got %v", x, w, c)
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
