package colorize

import "math"

// sRGB (D65) conversion constants, matching the coefficients OpenCV uses for
// COLOR_RGB2Lab / COLOR_Lab2RGB on floating-point images.
const (
	whiteX = 0.950456
	whiteZ = 1.088754

	labThreshold = 0.008856
	labKappa     = 903.3
	labSlope     = 7.787
	labOffset    = 16.0 / 116.0

	// FLT_EPSILON, guards the saturation divide for black pixels.
	hsvEpsilon = 1.1920929e-07
)

var (
	rgbToXYZ = [3][3]float64{
		{0.412453, 0.357580, 0.180423},
		{0.212671, 0.715160, 0.072169},
		{0.019334, 0.119193, 0.950227},
	}
	xyzToRGB = [3][3]float64{
		{3.240479, -1.53715, -0.498535},
		{-0.969256, 1.875991, 0.041556},
		{0.055648, -0.204043, 1.057311},
	}

	// cbrt(labThreshold), the fx/fz cut-over in the inverse transform.
	labInverseThreshold = math.Cbrt(labThreshold)
)

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func labF(t float64) float64 {
	if t > labThreshold {
		return math.Cbrt(t)
	}
	return labSlope*t + labOffset
}

func labFInverse(f float64) float64 {
	if f > labInverseThreshold {
		return f * f * f
	}
	return (f - labOffset) / labSlope
}

// RGBToLab converts an sRGB triple with samples in [0,1] to CIE Lab with
// L in [0,100] and a, b roughly in [-127,127].
// This is a pure function with no side effects.
func RGBToLab(r, g, b float64) (l, a, bb float64) {
	r, g, b = srgbToLinear(clamp01(r)), srgbToLinear(clamp01(g)), srgbToLinear(clamp01(b))

	x := (rgbToXYZ[0][0]*r + rgbToXYZ[0][1]*g + rgbToXYZ[0][2]*b) / whiteX
	y := rgbToXYZ[1][0]*r + rgbToXYZ[1][1]*g + rgbToXYZ[1][2]*b
	z := (rgbToXYZ[2][0]*r + rgbToXYZ[2][1]*g + rgbToXYZ[2][2]*b) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)
	if y > labThreshold {
		l = 116*fy - 16
	} else {
		l = labKappa * y
	}
	return l, 500 * (fx - fy), 200 * (fy - fz)
}

// LabToRGB converts CIE Lab back to sRGB with samples clipped to [0,1].
// ok is false when the input produces non-finite values.
// This is a pure function with no side effects.
func LabToRGB(l, a, bb float64) (r, g, b float64, ok bool) {
	var y, fy float64
	if l <= labKappa*labThreshold {
		y = l / labKappa
		fy = labSlope*y + labOffset
	} else {
		fy = (l + 16) / 116
		y = fy * fy * fy
	}
	fx := a/500 + fy
	fz := fy - bb/200

	x := labFInverse(fx) * whiteX
	z := labFInverse(fz) * whiteZ

	lin := [3]float64{
		xyzToRGB[0][0]*x + xyzToRGB[0][1]*y + xyzToRGB[0][2]*z,
		xyzToRGB[1][0]*x + xyzToRGB[1][1]*y + xyzToRGB[1][2]*z,
		xyzToRGB[2][0]*x + xyzToRGB[2][1]*y + xyzToRGB[2][2]*z,
	}
	for i, v := range lin {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, false
		}
		lin[i] = linearToSRGB(clamp01(v))
	}
	return lin[0], lin[1], lin[2], true
}

// RGBToHSV converts RGB to hue (degrees, [0,360)), saturation and value.
// Samples outside [0,1] are accepted; S follows OpenCV's float convention
// (range over |max|).
// This is a pure function with no side effects.
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	v = math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	diff := v - lo

	s = diff / (math.Abs(v) + hsvEpsilon)
	if diff == 0 {
		return 0, s, v
	}

	switch v {
	case r:
		h = 60 * (g - b) / diff
	case g:
		h = 120 + 60*(b-r)/diff
	default:
		h = 240 + 60*(r-g)/diff
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// HSVToRGB is the inverse of RGBToHSV.
// This is a pure function with no side effects.
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 60
	sector := int(math.Floor(h))
	f := h - float64(sector)

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch sector {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// scaleSaturation multiplies HSV saturation by factor and clamps it to [0,1].
func scaleSaturation(r, g, b, factor float64) (float64, float64, float64) {
	h, s, v := RGBToHSV(r, g, b)
	return HSVToRGB(h, clamp01(s*factor), v)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
