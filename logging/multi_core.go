package logging

import (
	"go.uber.org/zap/zapcore"
)

// NewMultiCoreWithWriters tees console and file output.
//
// The file side always uses JSON. The console side is human-readable and
// coloured when isDev is set, JSON otherwise.
//
// Example:
//
//	var buf bytes.Buffer
//	core := NewMultiCoreWithWriters(zapcore.DebugLevel, zapcore.AddSync(os.Stdout), zapcore.AddSync(&buf), true)
//	logger := zap.New(core)
func NewMultiCoreWithWriters(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		fileWriter,
		level,
	)
	return zapcore.NewTee(newConsoleCore(level, consoleWriter, isDev), fileCore)
}

func newConsoleCore(level zapcore.Level, w zapcore.WriteSyncer, isDev bool) zapcore.Core {
	var encoder zapcore.Encoder
	if isDev {
		encoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}
	return zapcore.NewCore(encoder, w, level)
}
