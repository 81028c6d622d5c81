package colornet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default file names of the pretrained Caffe colorization model.
const (
	PrototxtFile = "colorization_deploy_v2.prototxt"
	WeightsFile  = "colorization_release_v2.caffemodel"
	HullFile     = "pts_in_hull.npy"
)

// ModelFiles locates the three files the network is built from.
type ModelFiles struct {
	Prototxt string // network definition
	Weights  string // trained weights
	Hull     string // 313 quantized ab cluster centres
}

// FilesIn returns the default model file paths inside dir.
// This is a pure function with no side effects.
func FilesIn(dir string) ModelFiles {
	return ModelFiles{
		Prototxt: filepath.Join(dir, PrototxtFile),
		Weights:  filepath.Join(dir, WeightsFile),
		Hull:     filepath.Join(dir, HullFile),
	}
}

// Paths returns the file paths in a fixed order.
func (m ModelFiles) Paths() []string {
	return []string{m.Prototxt, m.Weights, m.Hull}
}

// Check verifies every model file exists and is a regular, non-empty file.
// All problems are reported in a single ErrModelNotFound error so operators
// can fix the model directory in one pass.
func (m ModelFiles) Check() error {
	var missing []string
	for _, path := range m.Paths() {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			missing = append(missing, path)
		case info.IsDir() || info.Size() == 0:
			missing = append(missing, path+" (empty or not a file)")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrModelNotFound, strings.Join(missing, ", "))
	}
	return nil
}
