package analytics

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestHistograms_TotalsEqualPixelCount(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 5))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(i)
		img.Pix[i+1] = uint8(i * 3)
		img.Pix[i+2] = uint8(255 - i)
		img.Pix[i+3] = 255
	}

	h := Histograms(img)
	for c := 0; c < 3; c++ {
		total := 0
		for _, n := range h[c] {
			total += n
		}
		if total != 35 {
			t.Errorf("channel %d total = %d, want 35", c, total)
		}
	}
}

func TestHistograms_Solid(t *testing.T) {
	h := Histograms(solid(4, 4, color.RGBA{10, 20, 30, 255}))
	if h[Red][10] != 16 || h[Green][20] != 16 || h[Blue][30] != 16 {
		t.Errorf("bins = %d %d %d, want 16 each", h[Red][10], h[Green][20], h[Blue][30])
	}
}

func TestHistograms_NonRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	for i := range gray.Pix {
		gray.Pix[i] = 77
	}
	h := Histograms(gray)
	if h[Red][77] != 9 || h[Blue][77] != 9 {
		t.Errorf("gray histogram = %d/%d, want 9", h[Red][77], h[Blue][77])
	}
}

func TestChannelMeans(t *testing.T) {
	img := solid(2, 1, color.RGBA{0, 100, 200, 255})
	img.Pix[0] = 100 // first pixel red = 100, second = 0

	m := ChannelMeans(img)
	want := [3]float64{50, 100, 200}
	if m != want {
		t.Errorf("ChannelMeans() = %v, want %v", m, want)
	}
	if got := ChannelMeans(image.NewRGBA(image.Rect(0, 0, 0, 0))); got != [3]float64{} {
		t.Errorf("empty means = %v", got)
	}
}

func TestComputeStats(t *testing.T) {
	// Samples: 0, 0, 0, 255, 255, 255 -> mean 127.5, std 127.5.
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(img.Pix, []uint8{0, 0, 0, 255, 255, 255, 255, 255})

	s, err := ComputeStats(img)
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}
	if s.Mean != 127.5 || math.Abs(s.Std-127.5) > 1e-9 || s.Min != 0 || s.Max != 255 {
		t.Errorf("stats = %+v", s)
	}

	if _, err := ComputeStats(image.NewRGBA(image.Rect(0, 0, 0, 3))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty error = %v, want ErrEmptyImage", err)
	}
}

func TestAnalyze(t *testing.T) {
	r, err := Analyze(solid(3, 2, color.RGBA{40, 40, 40, 255}))
	if err != nil {
		t.Fatal(err)
	}
	if r.Width != 3 || r.Height != 2 || r.Stats.Std != 0 || r.Means[Green] != 40 {
		t.Errorf("report = %+v", r)
	}
}

func TestDifference(t *testing.T) {
	a := solid(4, 3, color.RGBA{200, 50, 128, 255})

	t.Run("identical is zero", func(t *testing.T) {
		d, err := Difference(a, a)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < len(d.Pix); i += 4 {
			if d.Pix[i] != 0 || d.Pix[i+1] != 0 || d.Pix[i+2] != 0 {
				t.Fatalf("pixel %d = %v, want black", i/4, d.Pix[i:i+3])
			}
		}
	})

	t.Run("absolute difference", func(t *testing.T) {
		b := solid(4, 3, color.RGBA{100, 150, 128, 255})
		d, err := Difference(a, b)
		if err != nil {
			t.Fatal(err)
		}
		within := func(got, want uint8) bool { return got >= want-1 && got <= want+1 }
		if !within(d.Pix[0], 100) || !within(d.Pix[1], 100) || d.Pix[2] != 0 {
			t.Errorf("difference = %v, want ~[100 100 0]", d.Pix[:3])
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		if _, err := Difference(a, solid(3, 3, color.RGBA{})); !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("error = %v, want ErrSizeMismatch", err)
		}
	})
}

func TestComparisonHeight(t *testing.T) {
	tests := []struct {
		h1, h2, want int
	}{
		{100, 200, 100},
		{300, 250, 250},
		{800, 900, 600},
		{600, 601, 600},
	}
	for _, tt := range tests {
		if got := ComparisonHeight(tt.h1, tt.h2); got != tt.want {
			t.Errorf("ComparisonHeight(%d, %d) = %d, want %d", tt.h1, tt.h2, got, tt.want)
		}
	}
}

func TestComparison_Layout(t *testing.T) {
	before := solid(40, 100, color.RGBA{0, 0, 0, 255})
	after := solid(90, 150, color.RGBA{0, 0, 0, 255})

	out, err := Comparison(before, after)
	if err != nil {
		t.Fatalf("Comparison() error = %v", err)
	}
	// Height 100; after scales to 90*100/150 = 60 wide.
	wantW := 40 + DividerWidth + 60
	if out.Bounds().Dx() != wantW || out.Bounds().Dy() != 100 {
		t.Fatalf("bounds = %v, want %dx100", out.Bounds(), wantW)
	}

	for x := 40; x < 40+DividerWidth; x++ {
		if c := out.RGBAAt(x, 90); c != (color.RGBA{255, 255, 255, 255}) {
			t.Errorf("divider pixel (%d,90) = %v, want white", x, c)
		}
	}
	if c := out.RGBAAt(5, 90); c != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("before pixel = %v, want black", c)
	}
}

func TestComparison_LabelsDrawn(t *testing.T) {
	out, err := Comparison(solid(200, 80, color.RGBA{0, 0, 0, 255}), solid(200, 80, color.RGBA{0, 0, 0, 255}))
	if err != nil {
		t.Fatal(err)
	}
	white := 0
	label := image.Rect(labelMargin, labelMargin, labelMargin+6*7, labelMargin+13)
	for y := label.Min.Y; y < label.Max.Y; y++ {
		for x := label.Min.X; x < label.Max.X; x++ {
			if out.RGBAAt(x, y).R == 255 {
				white++
			}
		}
	}
	if white == 0 {
		t.Error("BEFORE label not drawn")
	}
}

func TestComparison_CapsHeight(t *testing.T) {
	out, err := Comparison(solid(100, 1000, color.RGBA{A: 255}), solid(100, 1000, color.RGBA{A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dy() != MaxComparisonHeight {
		t.Errorf("height = %d, want %d", out.Bounds().Dy(), MaxComparisonHeight)
	}
	if out.Bounds().Dx() != 60+DividerWidth+60 {
		t.Errorf("width = %d, want %d", out.Bounds().Dx(), 60+DividerWidth+60)
	}
}

func TestComparison_Empty(t *testing.T) {
	if _, err := Comparison(image.NewRGBA(image.Rect(0, 0, 0, 0)), solid(1, 1, color.RGBA{})); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("error = %v, want ErrEmptyImage", err)
	}
}
