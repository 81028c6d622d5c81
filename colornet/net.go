// Package colornet loads the pretrained Caffe colorization network and
// exposes it as a colorize.Inferencer.
//
// net.go declares the Net handle and the build-independent entry points.
// The forward pass itself lives in net_gocv.go (build tag "gocv") with a
// stub in net_stub.go for builds without OpenCV.
//
// Build with OpenCV:
//
//	go build -tags gocv
//
// Build without OpenCV (the model always reports ErrGoCVNotCompiled):
//
//	go build
package colornet

import (
	"fmt"

	"colorizer/colorize"
)

// Forwarder runs forward passes of one loaded network. A Forwarder is not
// safe for concurrent use.
type Forwarder interface {
	Forward(l colorize.Plane) (a, b colorize.Plane, err error)
	Close() error
}

// Loader builds a Forwarder from model files.
type Loader func(files ModelFiles) (Forwarder, error)

// Net is an opaque handle to a loaded colorization network.
type Net struct {
	// id distinguishes pooled instances in logs
	id uint64
	// files records what the network was loaded from
	files ModelFiles
	// valid is false once the network has been closed
	valid bool
	// handle holds backend-specific state
	handle *netHandle
}

// ID returns the instance identifier.
func (n *Net) ID() uint64 {
	if n == nil {
		return 0
	}
	return n.id
}

// IsValid returns whether this network is loaded and usable.
func (n *Net) IsValid() bool {
	if n == nil {
		return false
	}
	return n.valid
}

// LoadNet reads the network definition and weights, then injects the
// cluster centres and the rebalancing constant into their layers.
//
// Errors:
//   - ErrModelNotFound: a model file is missing
//   - ErrInvalidNPY, ErrHullShape: the cluster centre file is malformed
//   - ErrModelLoadFailed: the backend could not build the network
//
// The returned Net must be closed when no longer needed.
func LoadNet(files ModelFiles) (*Net, error) {
	if err := files.Check(); err != nil {
		return nil, err
	}
	hull, err := LoadHullPoints(files.Hull)
	if err != nil {
		return nil, err
	}
	return loadNetImpl(files, hull)
}

// NetLoader is the default Loader; it wraps LoadNet.
func NetLoader(files ModelFiles) (Forwarder, error) {
	n, err := LoadNet(files)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Forward runs the network on a centred NetInputSize×NetInputSize luminance
// plane and returns the a and b planes at the network's output resolution.
func (n *Net) Forward(l colorize.Plane) (colorize.Plane, colorize.Plane, error) {
	if !n.IsValid() {
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("%w: network is closed", ErrForwardFailed)
	}
	if !l.Valid() || l.Width != colorize.NetInputSize || l.Height != colorize.NetInputSize {
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("%w: expected %dx%d, got %dx%d",
			ErrInvalidInput, colorize.NetInputSize, colorize.NetInputSize, l.Width, l.Height)
	}
	return forwardImpl(n, l)
}

// Close releases backend resources. Closing twice is safe.
func (n *Net) Close() error {
	if n == nil || !n.valid {
		return nil
	}
	closeImpl(n)
	n.valid = false
	return nil
}

// BackendInfo describes the inference backend compiled into this binary.
func BackendInfo() string {
	return backendInfoImpl()
}

// SplitChannels splits a channel-major 2×h×w buffer into a and b planes.
// This is a pure function with no side effects.
func SplitChannels(data []float32, width, height int) (colorize.Plane, colorize.Plane, error) {
	n := width * height
	if width <= 0 || height <= 0 || len(data) != 2*n {
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("%w: %d values for 2x%dx%d output",
			ErrForwardFailed, len(data), height, width)
	}
	a := colorize.NewPlane(width, height)
	b := colorize.NewPlane(width, height)
	copy(a.Data, data[:n])
	copy(b.Data, data[n:])
	return a, b, nil
}
