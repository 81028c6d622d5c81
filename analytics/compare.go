package analytics

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Comparison layout.
const (
	MaxComparisonHeight = 600
	DividerWidth        = 3
	labelMargin         = 20
)

// Difference returns the absolute per-channel difference of two images of
// equal size. Identical images give an all-black result.
func Difference(a, b image.Image) (*image.RGBA, error) {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return nil, fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, a.Bounds().Size(), b.Bounds().Size())
	}
	if a.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return blend.Difference(clone.AsRGBA(a), clone.AsRGBA(b)), nil
}

// ScaleToHeight resizes img to height h, keeping the aspect ratio with the
// width truncated. Images already at height h are copied unchanged.
func ScaleToHeight(img image.Image, h int) *image.RGBA {
	b := img.Bounds()
	w := b.Dx() * h / b.Dy()
	if w < 1 {
		w = 1
	}
	if b.Dy() == h && b.Dx() == w {
		return clone.AsRGBA(img)
	}
	return transform.Resize(img, w, h, transform.Linear)
}

// ComparisonHeight is the shared height of a before/after comparison:
// the smaller input height, capped at MaxComparisonHeight.
// This is a pure function with no side effects.
func ComparisonHeight(h1, h2 int) int {
	return min(h1, h2, MaxComparisonHeight)
}

// Comparison places before and after side by side at a common height,
// separated by a white divider and labelled BEFORE and AFTER.
func Comparison(before, after image.Image) (*image.RGBA, error) {
	if before.Bounds().Empty() || after.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	h := ComparisonHeight(before.Bounds().Dy(), after.Bounds().Dy())
	left := ScaleToHeight(before, h)
	right := ScaleToHeight(after, h)

	lw, rw := left.Bounds().Dx(), right.Bounds().Dx()
	out := image.NewRGBA(image.Rect(0, 0, lw+DividerWidth+rw, h))

	draw.Draw(out, image.Rect(0, 0, lw, h), left, left.Bounds().Min, draw.Src)
	divider := image.Rect(lw, 0, lw+DividerWidth, h)
	draw.Draw(out, divider, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(lw+DividerWidth, 0, lw+DividerWidth+rw, h), right, right.Bounds().Min, draw.Src)

	drawLabel(out, "BEFORE", labelMargin, labelMargin)
	drawLabel(out, "AFTER", lw+DividerWidth+labelMargin, labelMargin)
	return out, nil
}

// drawLabel writes white text with a one pixel dark shadow so it stays
// readable on light images. (x, y) is the top-left corner of the text.
func drawLabel(dst draw.Image, text string, x, y int) {
	face := basicfont.Face7x13
	baseline := y + face.Ascent
	shadow := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x+1, baseline+1),
	}
	shadow.DrawString(text)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}
