// Package logging builds the process logger: a zap logger writing to the
// console and to a rotated JSON log file, plus field helpers for pipeline
// stages.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes how the process logger is assembled.
type Config struct {
	// Development switches the console to coloured, human-readable output.
	Development bool

	// FilePath is the JSON log file. Empty disables file output.
	FilePath string

	// Level is the minimum level for both outputs.
	Level zapcore.Level

	// File controls rotation of FilePath.
	File FileWriterConfig

	// Console receives console output. Defaults to os.Stdout.
	Console zapcore.WriteSyncer
}

// Logger wraps zap.Logger. Library packages take the *zap.Logger returned
// by Zap; the wrapper only owns construction and shutdown.
//
// Example:
//
//	logger, err := logging.NewLogger(true, "colorizer.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("server started", zap.String("addr", ":5000"))
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger

	isDevelopment bool
	logFilePath   string
}

// NewLogger creates a Logger with the default level for the mode:
// debug in development, info otherwise.
func NewLogger(isDevelopment bool, logFilePath string) (*Logger, error) {
	level := zapcore.InfoLevel
	if isDevelopment {
		level = zapcore.DebugLevel
	}
	return New(Config{
		Development: isDevelopment,
		FilePath:    logFilePath,
		Level:       level,
		File:        DefaultFileWriterConfig(),
	})
}

// New creates a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	console := cfg.Console
	if console == nil {
		console = zapcore.Lock(os.Stdout)
	}

	var core zapcore.Core
	if cfg.FilePath == "" {
		core = newConsoleCore(cfg.Level, console, cfg.Development)
	} else {
		fileWriter, err := openFileWriter(cfg.FilePath, cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to create log core: %w", err)
		}
		core = NewMultiCoreWithWriters(cfg.Level, console, fileWriter, cfg.Development)
	}

	zapLogger := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	return &Logger{
		zap:           zapLogger,
		sugar:         zapLogger.Sugar(),
		isDevelopment: cfg.Development,
		logFilePath:   cfg.FilePath,
	}, nil
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

// Debug logs a message at DebugLevel.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

// Info logs a message at InfoLevel.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

// Warn logs a message at WarnLevel.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

// Error logs a message at ErrorLevel.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// Infof logs a formatted message at InfoLevel.
func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.WithOptions(zap.AddCallerSkip(1)).Infof(template, args...)
}

// Warnf logs a formatted message at WarnLevel.
func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.WithOptions(zap.AddCallerSkip(1)).Warnf(template, args...)
}

// With creates a child logger that adds fields to every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return l.derive(l.zap.With(fields...))
}

// Named adds a sub-logger name, e.g. "http" or "batch".
func (l *Logger) Named(name string) *Logger {
	return l.derive(l.zap.Named(name))
}

func (l *Logger) derive(z *zap.Logger) *Logger {
	return &Logger{
		zap:           z,
		sugar:         z.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Zap returns the underlying zap.Logger for packages that accept one.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Sugar returns the underlying sugared logger.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// IsDevelopment returns true if the logger is configured for development mode.
func (l *Logger) IsDevelopment() bool {
	return l.isDevelopment
}

// LogFilePath returns the path to the log file, or "" when file output is off.
func (l *Logger) LogFilePath() string {
	return l.logFilePath
}
