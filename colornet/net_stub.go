//go:build !gocv

package colornet

import (
	"fmt"

	"colorizer/colorize"
)

// netHandle carries no state without OpenCV.
type netHandle struct{}

// loadNetImpl cannot build a network without OpenCV. The model files have
// already been validated by LoadNet, so the error names the build as the
// only missing piece.
func loadNetImpl(files ModelFiles, hull []float32) (*Net, error) {
	return nil, fmt.Errorf("%w: %w (rebuild with -tags gocv)", ErrModelLoadFailed, ErrGoCVNotCompiled)
}

func forwardImpl(n *Net, l colorize.Plane) (colorize.Plane, colorize.Plane, error) {
	return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("%w: %w", ErrForwardFailed, ErrGoCVNotCompiled)
}

func closeImpl(n *Net) {}

func backendInfoImpl() string {
	return "stub (built without gocv)"
}
