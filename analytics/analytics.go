// Package analytics computes image statistics and builds visual
// comparisons between an original and its colorized result.
package analytics

import (
	"errors"
	"image"
	"math"
)

// Analytics errors
var (
	ErrEmptyImage   = errors.New("analytics: image has no pixels")
	ErrSizeMismatch = errors.New("analytics: images differ in size")
)

// Bins is the number of histogram bins per channel.
const Bins = 256

// Channel indexes into per-channel results.
const (
	Red = iota
	Green
	Blue
)

// Stats summarizes every R, G and B sample of an image.
type Stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  uint8   `json:"min"`
	Max  uint8   `json:"max"`
}

// Report bundles the analytics for one image.
type Report struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Histograms [3][Bins]int `json:"histograms"`
	Means      [3]float64   `json:"channel_means"`
	Stats      Stats        `json:"stats"`
}

// eachPixel calls fn with the 8-bit RGB of every pixel, ignoring alpha.
func eachPixel(img image.Image, fn func(r, g, b uint8)) {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := rgba.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				fn(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
				i += 4
			}
		}
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			fn(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
}

// Histograms counts each channel's values into 256 bins.
// This is a pure function with no side effects.
func Histograms(img image.Image) [3][Bins]int {
	var h [3][Bins]int
	eachPixel(img, func(r, g, b uint8) {
		h[Red][r]++
		h[Green][g]++
		h[Blue][b]++
	})
	return h
}

// ChannelMeans returns the mean of each channel. An empty image yields zeros.
// This is a pure function with no side effects.
func ChannelMeans(img image.Image) [3]float64 {
	var sum [3]float64
	n := 0
	eachPixel(img, func(r, g, b uint8) {
		sum[Red] += float64(r)
		sum[Green] += float64(g)
		sum[Blue] += float64(b)
		n++
	})
	if n == 0 {
		return sum
	}
	for c := range sum {
		sum[c] /= float64(n)
	}
	return sum
}

// ComputeStats returns mean, population standard deviation, min and max over
// all samples of all three channels.
// This is a pure function with no side effects.
func ComputeStats(img image.Image) (Stats, error) {
	if img.Bounds().Empty() {
		return Stats{}, ErrEmptyImage
	}
	var sum, sumSq float64
	n := 0
	lo, hi := uint8(math.MaxUint8), uint8(0)
	eachPixel(img, func(r, g, b uint8) {
		for _, v := range [3]uint8{r, g, b} {
			f := float64(v)
			sum += f
			sumSq += f * f
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		n += 3
	})
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return Stats{Mean: mean, Std: math.Sqrt(variance), Min: lo, Max: hi}, nil
}

// Analyze builds the full report for an image.
func Analyze(img image.Image) (Report, error) {
	stats, err := ComputeStats(img)
	if err != nil {
		return Report{}, err
	}
	b := img.Bounds()
	return Report{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Histograms: Histograms(img),
		Means:      ChannelMeans(img),
		Stats:      stats,
	}, nil
}
