// Package colorize turns a grayscale image into a colour image using a
// pretrained chrominance-prediction network, then applies cosmetic styling
// and enhancement filters.
//
// The package is pure Go and performs no I/O. The network itself is injected
// as an Inferencer so the pipeline can run against the real model
// (package colornet), a fake in tests, or nothing at all (in which case the
// grayscale fallback is returned).
//
//   - Atoms: colour-space conversions (RGBToLab, LabToRGB, RGBToHSV,
//     HSVToRGB), ResizeBilinear, Grayscale
//   - Molecules: style and enhancement passes
//   - Organism: Colorize, the eight-stage pipeline
//
// # Quick Start
//
//	settings := colorize.DefaultSettings()
//	settings.Style = colorize.StyleVintage
//	settings.Warmth = 20
//
//	res, err := colorize.Colorize(img, service, settings)
//	if err != nil {
//	    return err // empty image or out-of-range settings
//	}
//	if res.Degraded {
//	    log.Printf("returned grayscale: %v", res.Err)
//	}
//
// # Concurrency
//
// Colorize holds no state between calls and may run concurrently. The
// Inferencer it is given must be safe for the caller's usage; colornet
// serializes access to a shared network.
package colorize
