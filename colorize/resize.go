package colorize

import "math"

// ResizeBilinear resamples a plane to width×height with bilinear
// interpolation. Sample positions use pixel-centre alignment and clamp at the
// borders, which is the INTER_LINEAR convention the model was trained with.
// This is a pure function with no side effects.
func ResizeBilinear(src Plane, width, height int) Plane {
	dst := NewPlane(width, height)
	if !src.Valid() || width <= 0 || height <= 0 {
		return dst
	}
	if src.Width == width && src.Height == height {
		copy(dst.Data, src.Data)
		return dst
	}

	xs := axisWeights(src.Width, width)
	ys := axisWeights(src.Height, height)

	for y, wy := range ys {
		row0 := src.Data[wy.i0*src.Width : (wy.i0+1)*src.Width]
		row1 := src.Data[wy.i1*src.Width : (wy.i1+1)*src.Width]
		out := dst.Data[y*width : (y+1)*width]
		for x, wx := range xs {
			top := float64(row0[wx.i0])*(1-wx.f) + float64(row0[wx.i1])*wx.f
			bottom := float64(row1[wx.i0])*(1-wx.f) + float64(row1[wx.i1])*wx.f
			out[x] = float32(top*(1-wy.f) + bottom*wy.f)
		}
	}
	return dst
}

type axisWeight struct {
	i0, i1 int
	f      float64
}

// axisWeights precomputes source indices and fractions for one axis.
func axisWeights(srcLen, dstLen int) []axisWeight {
	scale := float64(srcLen) / float64(dstLen)
	weights := make([]axisWeight, dstLen)
	for d := range weights {
		s := (float64(d)+0.5)*scale - 0.5
		i0 := int(math.Floor(s))
		f := s - float64(i0)
		if i0 < 0 {
			i0, f = 0, 0
		}
		if i0 >= srcLen-1 {
			i0, f = srcLen-1, 0
		}
		i1 := i0 + 1
		if i1 > srcLen-1 {
			i1 = srcLen - 1
		}
		weights[d] = axisWeight{i0: i0, i1: i1, f: f}
	}
	return weights
}
