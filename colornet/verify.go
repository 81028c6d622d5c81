package colornet

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Checksums maps model file names (base names, e.g. "pts_in_hull.npy") to
// their expected lowercase hex SHA-256 digests. Files without an entry are
// not verified.
type Checksums map[string]string

// Verify checks every model file that has a registered digest.
//
// Returns:
//   - nil if all registered digests match
//   - ErrModelNotFound if a file doesn't exist
//   - ErrModelCorrupted on the first mismatch
func (c Checksums) Verify(files ModelFiles) error {
	for _, path := range files.Paths() {
		if err := c.VerifyFile(path); err != nil {
			return err
		}
	}
	return nil
}

// VerifyFile checks a single file against its registered digest.
func (c Checksums) VerifyFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return fmt.Errorf("failed to access model file: %w", err)
	}

	expected, ok := c[filepath.Base(path)]
	if !ok || expected == "" {
		return nil
	}

	actual, err := CalculateChecksum(path)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}
	if actual != strings.ToLower(expected) {
		return fmt.Errorf("%w: %s: expected %s, got %s", ErrModelCorrupted, filepath.Base(path), expected, actual)
	}
	return nil
}

// CalculateChecksum streams a file through SHA-256 and returns the lowercase
// hex digest.
func CalculateChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// IsModelCorrupted reports whether err indicates a checksum mismatch or a
// malformed model file.
func IsModelCorrupted(err error) bool {
	return errors.Is(err, ErrModelCorrupted) || errors.Is(err, ErrHullShape) || errors.Is(err, ErrInvalidNPY)
}

// IsModelNotFound reports whether err indicates a missing model file.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
