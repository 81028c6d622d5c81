package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ParseLevel parses a LOG_LEVEL value. Parsing is case-insensitive and
// accepts debug, info, warn, warning and error. An empty string yields
// defaultLevel.
func ParseLevel(levelStr string, defaultLevel zapcore.Level) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "":
		return defaultLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return defaultLevel, fmt.Errorf("unknown log level %q", levelStr)
	}
}
