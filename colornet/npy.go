package colornet

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// HullPoints is the number of quantized ab bins the network predicts over.
const HullPoints = 313

var npyMagic = []byte("\x93NUMPY")

var (
	npyDescr   = regexp.MustCompile(`'descr'\s*:\s*'([^']+)'`)
	npyFortran = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	npyShape   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// Array is a decoded NumPy array stored as float64 in C (row-major) order.
type Array struct {
	Shape []int
	Data  []float64
}

// ReadNPY decodes a little-endian .npy stream holding int32, int64, float32
// or float64 values in C order.
func ReadNPY(r io.Reader) (*Array, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %v", ErrInvalidNPY, err)
	}
	if !bytes.Equal(magic[:len(npyMagic)], npyMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidNPY)
	}

	var headerLen int
	switch major := magic[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: header length: %v", ErrInvalidNPY, err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: header length: %v", ErrInvalidNPY, err)
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidNPY, major)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidNPY, err)
	}

	descr, shape, err := parseNPYHeader(string(header))
	if err != nil {
		return nil, err
	}

	count := 1
	for _, d := range shape {
		count *= d
	}

	data, err := readNPYData(br, descr, count)
	if err != nil {
		return nil, err
	}
	return &Array{Shape: shape, Data: data}, nil
}

func parseNPYHeader(header string) (string, []int, error) {
	m := npyDescr.FindStringSubmatch(header)
	if m == nil {
		return "", nil, fmt.Errorf("%w: header has no descr", ErrInvalidNPY)
	}
	descr := m[1]

	if m := npyFortran.FindStringSubmatch(header); m != nil && m[1] == "True" {
		return "", nil, fmt.Errorf("%w: fortran order", ErrUnsupportedDType)
	}

	m = npyShape.FindStringSubmatch(header)
	if m == nil {
		return "", nil, fmt.Errorf("%w: header has no shape", ErrInvalidNPY)
	}
	var shape []int
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 {
			return "", nil, fmt.Errorf("%w: bad dimension %q", ErrInvalidNPY, part)
		}
		shape = append(shape, d)
	}
	return descr, shape, nil
}

func readNPYData(r io.Reader, descr string, count int) ([]float64, error) {
	out := make([]float64, count)
	switch descr {
	case "<i8":
		buf := make([]int64, count)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrInvalidNPY, err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case "<i4":
		buf := make([]int32, count)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrInvalidNPY, err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case "<f8":
		buf := make([]uint64, count)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrInvalidNPY, err)
		}
		for i, v := range buf {
			out[i] = math.Float64frombits(v)
		}
	case "<f4":
		buf := make([]uint32, count)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrInvalidNPY, err)
		}
		for i, v := range buf {
			out[i] = float64(math.Float32frombits(v))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, descr)
	}
	return out, nil
}

// LoadHullPoints reads the 313×2 cluster-centre array and returns it
// transposed to channel-major order (all a values, then all b values), the
// layout of the class8_ab layer's 2×313×1×1 kernel.
func LoadHullPoints(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("open cluster centres: %w", err)
	}
	defer f.Close()

	arr, err := ReadNPY(f)
	if err != nil {
		return nil, err
	}
	return TransposeHull(arr)
}

// TransposeHull validates a 313×2 array and transposes it to 2×313.
// This is a pure function with no side effects.
func TransposeHull(arr *Array) ([]float32, error) {
	if len(arr.Shape) != 2 || arr.Shape[0] != HullPoints || arr.Shape[1] != 2 {
		return nil, fmt.Errorf("%w: got shape %v", ErrHullShape, arr.Shape)
	}
	out := make([]float32, 2*HullPoints)
	for i := 0; i < HullPoints; i++ {
		out[i] = float32(arr.Data[i*2])
		out[HullPoints+i] = float32(arr.Data[i*2+1])
	}
	return out, nil
}
