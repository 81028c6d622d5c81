package colornet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// buildNPY encodes a version 1.0 .npy stream.
func buildNPY(t *testing.T, descr, shape string, fortran bool, data any) []byte {
	t.Helper()
	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%s), }", descr, order, shape)
	for (len(npyMagic)+4+len(header)+1)%64 != 0 {
		header += " "
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		t.Fatalf("encode data: %v", err)
	}
	return buf.Bytes()
}

// hullData returns a 313x2 row-major array where row i is (i, -i).
func hullData() []int64 {
	out := make([]int64, 2*HullPoints)
	for i := 0; i < HullPoints; i++ {
		out[i*2] = int64(i)
		out[i*2+1] = int64(-i)
	}
	return out
}

func TestReadNPY_Int64Hull(t *testing.T) {
	raw := buildNPY(t, "<i8", "313, 2", false, hullData())

	arr, err := ReadNPY(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadNPY() error = %v", err)
	}
	if len(arr.Shape) != 2 || arr.Shape[0] != HullPoints || arr.Shape[1] != 2 {
		t.Fatalf("Shape = %v, want [313 2]", arr.Shape)
	}
	if arr.Data[2*10] != 10 || arr.Data[2*10+1] != -10 {
		t.Errorf("row 10 = (%v, %v), want (10, -10)", arr.Data[20], arr.Data[21])
	}
}

func TestReadNPY_DTypes(t *testing.T) {
	tests := []struct {
		name  string
		descr string
		data  any
		want  []float64
	}{
		{"int32", "<i4", []int32{1, -2, 3}, []float64{1, -2, 3}},
		{"int64", "<i8", []int64{-7, 0, 7}, []float64{-7, 0, 7}},
		{"float32", "<f4", []float32{0.5, -1.25, 2}, []float64{0.5, -1.25, 2}},
		{"float64", "<f8", []float64{3.5, -0.125, 1e3}, []float64{3.5, -0.125, 1e3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := ReadNPY(bytes.NewReader(buildNPY(t, tt.descr, "3,", false, tt.data)))
			if err != nil {
				t.Fatalf("ReadNPY() error = %v", err)
			}
			if len(arr.Shape) != 1 || arr.Shape[0] != 3 {
				t.Fatalf("Shape = %v, want [3]", arr.Shape)
			}
			for i, w := range tt.want {
				if arr.Data[i] != w {
					t.Errorf("Data[%d] = %v, want %v", i, arr.Data[i], w)
				}
			}
		})
	}
}

func TestReadNPY_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     func(t *testing.T) []byte
		wantErr error
	}{
		{
			name:    "bad magic",
			raw:     func(t *testing.T) []byte { return []byte("not a numpy file at all") },
			wantErr: ErrInvalidNPY,
		},
		{
			name:    "truncated",
			raw:     func(t *testing.T) []byte { return npyMagic[:3] },
			wantErr: ErrInvalidNPY,
		},
		{
			name: "big endian",
			raw: func(t *testing.T) []byte {
				return buildNPY(t, ">i8", "2,", false, []int64{1, 2})
			},
			wantErr: ErrUnsupportedDType,
		},
		{
			name: "fortran order",
			raw: func(t *testing.T) []byte {
				return buildNPY(t, "<i8", "2,", true, []int64{1, 2})
			},
			wantErr: ErrUnsupportedDType,
		},
		{
			name: "short data",
			raw: func(t *testing.T) []byte {
				return buildNPY(t, "<i8", "4,", false, []int64{1, 2})
			},
			wantErr: ErrInvalidNPY,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNPY(bytes.NewReader(tt.raw(t)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadNPY() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadHullPoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, HullFile)
	if err := os.WriteFile(path, buildNPY(t, "<i8", "313, 2", false, hullData()), 0644); err != nil {
		t.Fatal(err)
	}

	hull, err := LoadHullPoints(path)
	if err != nil {
		t.Fatalf("LoadHullPoints() error = %v", err)
	}
	if len(hull) != 2*HullPoints {
		t.Fatalf("len = %d, want %d", len(hull), 2*HullPoints)
	}
	// Channel-major: a values first, then b values.
	for _, i := range []int{0, 1, 156, 312} {
		if hull[i] != float32(i) {
			t.Errorf("a[%d] = %v, want %d", i, hull[i], i)
		}
		if hull[HullPoints+i] != float32(-i) {
			t.Errorf("b[%d] = %v, want %d", i, hull[HullPoints+i], -i)
		}
	}
}

func TestLoadHullPoints_WrongShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), HullFile)
	if err := os.WriteFile(path, buildNPY(t, "<i8", "2, 2", false, []int64{1, 2, 3, 4}), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHullPoints(path); !errors.Is(err, ErrHullShape) {
		t.Errorf("error = %v, want ErrHullShape", err)
	}
}

func TestLoadHullPoints_Missing(t *testing.T) {
	_, err := LoadHullPoints(filepath.Join(t.TempDir(), "nope.npy"))
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("error = %v, want ErrModelNotFound", err)
	}
}
