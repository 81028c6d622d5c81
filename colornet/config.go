package colornet

import (
	"fmt"
	"time"
)

// Default runtime values.
const (
	DefaultPoolSize       = 1
	DefaultTimeoutSeconds = 60
)

// Config holds the model runtime settings.
type Config struct {
	// ModelDir contains the prototxt, caffemodel and cluster centre files
	ModelDir string
	// PoolSize caps the number of loaded networks
	PoolSize int
	// Timeout bounds how long Infer waits for a free network
	Timeout time.Duration
	// Checksums holds optional expected digests keyed by file name
	Checksums Checksums
}

// DefaultConfig returns the runtime defaults for a model directory.
func DefaultConfig(modelDir string) Config {
	return Config{
		ModelDir: modelDir,
		PoolSize: DefaultPoolSize,
		Timeout:  DefaultTimeoutSeconds * time.Second,
	}
}

// Files returns the model file paths inside ModelDir.
func (c Config) Files() ModelFiles {
	return FilesIn(c.ModelDir)
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.ModelDir == "" {
		return fmt.Errorf("%w: model directory is empty", ErrModelNotFound)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPoolSize, c.PoolSize)
	}
	return nil
}

// CheckFiles reports every missing model file in dir.
func CheckFiles(dir string) error {
	return FilesIn(dir).Check()
}
