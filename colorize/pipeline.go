package colorize

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// rgbImage is an interleaved RGB buffer with samples nominally in [0,1].
type rgbImage struct {
	width  int
	height int
	pix    []float64
}

func newRGBImage(width, height int) *rgbImage {
	return &rgbImage{width: width, height: height, pix: make([]float64, width*height*3)}
}

// Colorize runs the full colorization pipeline on src:
//
//  1. luminance-only grayscale, re-expanded to three channels
//  2. RGB -> Lab, resize to NetInputSize, centre L
//  3. inference, resize chrominance back to the source size
//  4. original-resolution L joined with clamped a/b
//  5. Lab -> RGB
//  6. style
//  7. enhancements
//  8. clamp and quantize to 8 bits
//
// src is never modified. An error is returned only for an empty image or
// invalid settings. Inference failures and non-finite inverse transforms do
// not fail the call: the Stage 1 grayscale image is returned with
// Result.Degraded set and Result.Err naming the cause.
func Colorize(src image.Image, infer Inferencer, s Settings) (Result, error) {
	if src == nil || src.Bounds().Empty() {
		return Result{}, ErrEmptyImage
	}
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	gray := Grayscale(src)
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()

	lPlane := luminancePlane(gray)

	netL := ResizeBilinear(lPlane, NetInputSize, NetInputSize)
	for i := range netL.Data {
		netL.Data[i] -= LuminanceCenter
	}

	a, b, err := safeInfer(infer, netL)
	if err != nil {
		return degraded(gray, err), nil
	}
	if !a.Valid() || !b.Valid() || a.Width != b.Width || a.Height != b.Height {
		return degraded(gray, fmt.Errorf("%w: a=%dx%d b=%dx%d",
			ErrInvalidChroma, a.Width, a.Height, b.Width, b.Height)), nil
	}
	a = ResizeBilinear(a, width, height)
	b = ResizeBilinear(b, width, height)

	rgb, err := reconcile(lPlane, a, b)
	if err != nil {
		return degraded(gray, err), nil
	}

	applyStyle(rgb, s.Style, s.Intensity)
	applyEnhancements(rgb, s.Enhancements)

	return Result{Image: quantize(rgb)}, nil
}

// Grayscale is Stage 1: it reduces src to 8-bit luminance and re-expands it
// to an opaque three-channel image. Alpha is discarded.
// This is a pure function with no side effects.
func Grayscale(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			v := luma(c.R, c.G, c.B)
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = v
			dst.Pix[i+1] = v
			dst.Pix[i+2] = v
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}

// luma is the fixed-point Rec.601 weighting with round-half-up.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*4899 + uint32(g)*9617 + uint32(b)*1868 + 8192) >> 14)
}

// luminancePlane converts a gray image to its Lab L channel at full resolution.
func luminancePlane(gray *image.RGBA) Plane {
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	p := NewPlane(width, height)

	// A gray image has 256 possible L values.
	var table [256]float32
	for v := range table {
		f := float64(v) / 255
		l, _, _ := RGBToLab(f, f, f)
		table[v] = float32(l)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p.Data[y*width+x] = table[gray.Pix[gray.PixOffset(x, y)]]
		}
	}
	return p
}

// safeInfer invokes the inferencer and converts panics and nil inferencers
// into ErrInferenceFailed.
func safeInfer(infer Inferencer, l Plane) (a, b Plane, err error) {
	if infer == nil {
		return Plane{}, Plane{}, fmt.Errorf("%w: no inferencer", ErrInferenceFailed)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInferenceFailed, r)
		}
	}()
	a, b, err = infer.Infer(l)
	if err != nil {
		return Plane{}, Plane{}, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}
	return a, b, nil
}

// reconcile joins the original L with clamped chrominance and converts the
// result back to RGB.
func reconcile(l, a, b Plane) (*rgbImage, error) {
	out := newRGBImage(l.Width, l.Height)
	for i := range l.Data {
		av := clamp(float64(a.Data[i]), ChromaMin, ChromaMax)
		bv := clamp(float64(b.Data[i]), ChromaMin, ChromaMax)
		if math.IsNaN(av) || math.IsNaN(bv) {
			return nil, fmt.Errorf("%w: NaN chrominance at pixel %d", ErrInverseTransform, i)
		}
		r, g, bl, ok := LabToRGB(float64(l.Data[i]), av, bv)
		if !ok {
			return nil, fmt.Errorf("%w: pixel %d", ErrInverseTransform, i)
		}
		out.pix[i*3+0] = r
		out.pix[i*3+1] = g
		out.pix[i*3+2] = bl
	}
	return out, nil
}

// quantize is Stage 8: clamp to [0,1], scale to [0,255] and truncate.
func quantize(img *rgbImage) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, img.width, img.height))
	for i := 0; i < img.width*img.height; i++ {
		dst.Pix[i*4+0] = uint8(clamp01(img.pix[i*3+0]) * 255)
		dst.Pix[i*4+1] = uint8(clamp01(img.pix[i*3+1]) * 255)
		dst.Pix[i*4+2] = uint8(clamp01(img.pix[i*3+2]) * 255)
		dst.Pix[i*4+3] = 0xff
	}
	return dst
}

func degraded(gray *image.RGBA, cause error) Result {
	return Result{Image: gray, Degraded: true, Err: cause}
}
