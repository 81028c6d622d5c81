package core

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
	Cause   error  // Underlying error, if any
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Error codes for configuration errors
const (
	ErrCodeInvalidValue  = "INVALID_VALUE"
	ErrCodeMissingConfig = "MISSING_CONFIG"
	ErrCodeDirUnusable   = "DIR_UNUSABLE"
	ErrCodeModelMissing  = "MODEL_MISSING"
)

// ErrInvalidValue returns an error for an environment variable that failed to parse or is out of range.
func ErrInvalidValue(key, value, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid %s '%s': %s", key, value, reason),
		Action:  fmt.Sprintf("Fix %s in your .env file or environment", key),
	}
}

// ErrMissingConfig returns an error for missing required configuration
func ErrMissingConfig(varName string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in your .env file", varName),
	}
}

// ErrDirUnusable returns an error for a directory that cannot be created or written.
func ErrDirUnusable(dir string, cause error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeDirUnusable,
		Message: fmt.Sprintf("Cannot use directory %s: %v", dir, cause),
		Action:  "Check the path and its permissions",
		Cause:   cause,
	}
}

// ErrModelMissing returns an error for an unusable model directory.
func ErrModelMissing(dir string, cause error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeModelMissing,
		Message: fmt.Sprintf("Colorization model unavailable in %s: %v", dir, cause),
		Action:  "Place the prototxt, caffemodel and pts_in_hull.npy files in MODEL_DIR or set MODEL_BASE_URL and run 'colorizer models fetch'",
		Cause:   cause,
	}
}

// IsConfigError checks if an error is a ConfigError and returns it if so
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigError
func GetErrorCode(err error) string {
	if configErr, ok := IsConfigError(err); ok {
		return configErr.Code
	}
	return ""
}
