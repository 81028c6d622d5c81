package colorize

// applyEnhancements is Stage 7: brightness, contrast, saturation, warmth and
// sharpness, in that order. It mutates img in place.
func applyEnhancements(img *rgbImage, e Enhancements) {
	px := img.pix

	if e.Brightness != 0 {
		delta := e.Brightness / 100
		for i := range px {
			px[i] += delta
		}
	}

	if contrast := (e.Contrast + 100) / 100; contrast != 1 {
		contrastAround(px, contrast)
	}

	saturation := (e.Saturation + 100) / 100
	for i := 0; i < len(px); i += 3 {
		px[i], px[i+1], px[i+2] = scaleSaturation(px[i], px[i+1], px[i+2], saturation)
	}

	applyWarmth(px, e.Warmth/100)

	if factor := (e.Sharpness + 100) / 100; factor != 1 {
		sharpen(img, factor)
	}

	for i := range px {
		px[i] = clamp01(px[i])
	}
}

// applyWarmth scales red and blue asymmetrically. w is the slider value
// divided by 100.
func applyWarmth(px []float64, w float64) {
	var red, blue float64
	if w > 0 {
		red, blue = 1+w, 1-w*0.5
	} else {
		red, blue = 1+w*0.5, 1-w
	}
	for i := 0; i < len(px); i += 3 {
		px[i] = clamp01(px[i] * red)
		px[i+2] = clamp01(px[i+2] * blue)
	}
}

// sharpenKernel builds the 3×3 kernel for a sharpness factor f: every
// weight of the base [-1 ... 9 ... -1] kernel is scaled by (f-1), then the
// centre is increased by 9-8(f-1).
func sharpenKernel(f float64) [3][3]float64 {
	k := f - 1
	var kernel [3][3]float64
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			kernel[y][x] = -k
		}
	}
	kernel[1][1] = 9*k + 9 - 8*k
	return kernel
}

// sharpen correlates every channel with sharpenKernel(f). Borders reflect
// without repeating the edge sample (dcb|abcd|cba).
func sharpen(img *rgbImage, f float64) {
	kernel := sharpenKernel(f)
	w, h := img.width, img.height
	src := make([]float64, len(img.pix))
	copy(src, img.pix)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			for ky := -1; ky <= 1; ky++ {
				sy := reflect101(y+ky, h)
				for kx := -1; kx <= 1; kx++ {
					sx := reflect101(x+kx, w)
					kv := kernel[ky+1][kx+1]
					o := (sy*w + sx) * 3
					acc[0] += src[o] * kv
					acc[1] += src[o+1] * kv
					acc[2] += src[o+2] * kv
				}
			}
			o := (y*w + x) * 3
			img.pix[o], img.pix[o+1], img.pix[o+2] = acc[0], acc[1], acc[2]
		}
	}
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
