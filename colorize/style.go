package colorize

// sepia is the Vintage mixing matrix, out = sepia · rgb.
var sepia = [3][3]float64{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

// Cinematic tint vectors, indexed by channel.
var (
	cinematicCool = [3]float64{0.9, 0.95, 1.1}
	cinematicWarm = [3]float64{1.1, 1.05, 0.95}
)

const (
	cinematicShadow    = 0.3
	cinematicHighlight = 0.7
)

// applyStyle is Stage 6. It mutates img in place and leaves every sample in
// [0,1].
func applyStyle(img *rgbImage, style Style, intensity float64) {
	px := img.pix
	switch style {
	case StyleVibrant:
		factor := 1.5 * intensity
		for i := 0; i < len(px); i += 3 {
			px[i], px[i+1], px[i+2] = scaleSaturation(px[i], px[i+1], px[i+2], factor)
		}

	case StyleVintage:
		for i := 0; i < len(px); i += 3 {
			r, g, b := px[i], px[i+1], px[i+2]
			for c := 0; c < 3; c++ {
				px[i+c] = clamp01(sepia[c][0]*r + sepia[c][1]*g + sepia[c][2]*b)
			}
		}

	case StyleArtistic:
		for i := 0; i < len(px); i += 3 {
			px[i] = clamp01(px[i] * 1.2 * intensity)
			px[i+2] = clamp01(px[i+2] * 0.8)
		}

	case StyleDramatic:
		contrastAround(px, 1.3*intensity)
		// The stretched samples go to HSV unclipped; only the final pass clips.
		for i := 0; i < len(px); i += 3 {
			px[i], px[i+1], px[i+2] = scaleSaturation(px[i], px[i+1], px[i+2], 1.3)
		}

	case StyleCinematic:
		contrastAround(px, 1.2*intensity)
		// The thresholds test each channel sample on its own, not pixel
		// luminance, so a single pixel can be tinted cool in one channel and
		// warm in another.
		for i := 0; i < len(px); i += 3 {
			for c := 0; c < 3; c++ {
				if px[i+c] < cinematicShadow {
					px[i+c] *= cinematicCool[c]
				}
				if px[i+c] > cinematicHighlight {
					px[i+c] *= cinematicWarm[c]
				}
			}
		}
	}

	for i := range px {
		px[i] = clamp01(px[i])
	}
}

// contrastAround stretches samples around 0.5 by factor.
func contrastAround(px []float64, factor float64) {
	for i := range px {
		px[i] = (px[i]-0.5)*factor + 0.5
	}
}
