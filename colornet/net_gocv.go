//go:build gocv

package colornet

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"sync/atomic"

	"colorizer/colorize"

	"gocv.io/x/gocv"
)

const (
	// classLayer predicts over the quantized ab bins; its kernel is the
	// transposed cluster-centre array.
	classLayer = "class8_ab"
	// rebalanceLayer is filled with a constant class rebalancing factor.
	rebalanceLayer = "conv8_313_rh"
	rebalanceValue = 2.606
)

var netCounter uint64

// netHandle owns the OpenCV network and the parameter blobs injected into it.
type netHandle struct {
	net    gocv.Net
	kernel gocv.Mat
	bias   gocv.Mat
}

func loadNetImpl(files ModelFiles, hull []float32) (*Net, error) {
	net := gocv.ReadNetFromCaffe(files.Prototxt, files.Weights)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoadFailed, files.Weights)
	}

	classID, err := layerID(&net, classLayer)
	if err != nil {
		net.Close()
		return nil, err
	}
	rebalanceID, err := layerID(&net, rebalanceLayer)
	if err != nil {
		net.Close()
		return nil, err
	}

	kernel, err := gocv.NewMatWithSizesFromBytes([]int{2, HullPoints, 1, 1}, gocv.MatTypeCV32F, float32Bytes(hull))
	if err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: cluster centre blob: %v", ErrModelLoadFailed, err)
	}
	bias := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(rebalanceValue, 0, 0, 0), 1, HullPoints, gocv.MatTypeCV32F)

	net.SetParam(classID, 0, kernel)
	net.SetParam(rebalanceID, 0, bias)

	return &Net{
		id:     atomic.AddUint64(&netCounter, 1),
		files:  files,
		valid:  true,
		handle: &netHandle{net: net, kernel: kernel, bias: bias},
	}, nil
}

// layerID maps a layer name to its OpenCV id. Ids are 1-based in the order
// GetLayerNames reports; id 0 is the implicit input layer.
func layerID(net *gocv.Net, name string) (int, error) {
	for i, n := range net.GetLayerNames() {
		if n == name {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: layer %q not found in network definition", ErrModelCorrupted, name)
}

func forwardImpl(n *Net, l colorize.Plane) (colorize.Plane, colorize.Plane, error) {
	input, err := gocv.NewMatFromBytes(l.Height, l.Width, gocv.MatTypeCV32F, float32Bytes(l.Data))
	if err != nil {
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("%w: input mat: %v", ErrForwardFailed, err)
	}
	defer input.Close()

	blob := gocv.BlobFromImage(input, 1.0, image.Pt(l.Width, l.Height), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	net := &n.handle.net
	net.SetInput(blob, "")
	out := net.Forward("")
	defer out.Close()

	// Output is 1×2×H×W.
	dims := out.Size()
	if len(dims) != 4 || dims[0] != 1 || dims[1] != 2 {
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("%w: unexpected output shape %v", ErrForwardFailed, dims)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}
	// SplitChannels copies, so the planes outlive out.
	return SplitChannels(data, dims[3], dims[2])
}

func closeImpl(n *Net) {
	if n.handle == nil {
		return
	}
	n.handle.net.Close()
	n.handle.kernel.Close()
	n.handle.bias.Close()
	n.handle = nil
}

func backendInfoImpl() string {
	return "opencv " + gocv.OpenCVVersion() + " (gocv " + gocv.Version() + ")"
}

func float32Bytes(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
