package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Byte size constants for human-readable formatting.
// Using binary units (1024 base) as is standard for file sizes.
const (
	BytesPerKB int64 = 1024
	BytesPerMB int64 = 1024 * BytesPerKB
	BytesPerGB int64 = 1024 * BytesPerMB
)

// FormatBytes converts a byte count to a human-readable string.
// Examples:
//   - FormatBytes(512) returns "512 B"
//   - FormatBytes(1536) returns "1.50 KB"
//   - FormatBytes(16777216) returns "16.00 MB"
//
// This is a pure function with no side effects.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	switch {
	case bytes >= BytesPerGB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(BytesPerGB))
	case bytes >= BytesPerMB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(BytesPerMB))
	case bytes >= BytesPerKB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(BytesPerKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ParseBytes converts a size string to bytes.
// Supported formats: "100", "100B", "10KB", "5MB", "2GB" (case-insensitive,
// single-letter units and a space before the unit allowed).
//
// This is a pure function with no side effects.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	numEnd := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if numEnd == -1 {
		numEnd = len(s)
	}
	if numEnd == 0 {
		return 0, fmt.Errorf("invalid size %q: no number found", s)
	}

	value, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	var multiplier int64
	switch strings.ToUpper(strings.TrimSpace(s[numEnd:])) {
	case "", "B":
		multiplier = 1
	case "KB", "K":
		multiplier = BytesPerKB
	case "MB", "M":
		multiplier = BytesPerMB
	case "GB", "G":
		multiplier = BytesPerGB
	default:
		return 0, fmt.Errorf("invalid size %q: unknown unit", s)
	}
	return int64(value * float64(multiplier)), nil
}
