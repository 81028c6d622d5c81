package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Configuration defaults.
const (
	DefaultModelDir       = "./models"
	DefaultUploadDir      = "./uploads"
	DefaultOutputDir      = "./outputs"
	DefaultListenAddr     = ":5000"
	DefaultMaxUploadBytes = 16 * BytesPerMB
	DefaultBatchWorkers   = 2
	DefaultPoolSize       = 1
	DefaultInferTimeout   = 60 // seconds
	DefaultJPEGQuality    = 95
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10
	DefaultLogFile        = "colorizer.log"
	DefaultLogLevel       = "info"
	DefaultHistorySize    = 100
)

// checksumEnvPrefix starts the variables holding expected model digests,
// e.g. MODEL_SHA256_PTS_IN_HULL_NPY.
const checksumEnvPrefix = "MODEL_SHA256_"

// Config holds all configuration values
type Config struct {
	// Model
	ModelDir       string
	ModelBaseURL   string            // Optional source for missing model files
	ModelChecksums map[string]string // Expected SHA-256 keyed by model file name
	PoolSize       int
	InferTimeout   time.Duration

	// Storage
	UploadDir   string
	OutputDir   string
	PresetsFile string

	// Server
	ListenAddr     string
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int

	// Processing
	BatchWorkers int
	JPEGQuality  int
	HistorySize  int

	// Logging
	LogFile  string
	LogLevel string
	DevMode  bool
}

// LoadConfig reads configuration from the environment. Call godotenv.Load
// first to pick up a .env file. Every value has a default; the returned
// error is a *ConfigError describing the first invalid value.
func LoadConfig() (*Config, error) {
	maxUpload := DefaultMaxUploadBytes
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		n, err := ParseBytes(raw)
		if err != nil || n <= 0 {
			return nil, ErrInvalidValue("MAX_UPLOAD_BYTES", raw, "expected a positive size such as 16MB")
		}
		maxUpload = n
	}

	cfg := &Config{
		ModelDir:       GetEnvOrDefault("MODEL_DIR", DefaultModelDir),
		ModelBaseURL:   strings.TrimRight(os.Getenv("MODEL_BASE_URL"), "/"),
		ModelChecksums: checksumsFromEnv(os.Environ()),
		PoolSize:       ParseIntEnv("INFERENCE_POOL_SIZE", DefaultPoolSize),
		InferTimeout:   ParseDurationEnv("INFERENCE_TIMEOUT", DefaultInferTimeout),

		UploadDir:   GetEnvOrDefault("UPLOAD_DIR", DefaultUploadDir),
		OutputDir:   GetEnvOrDefault("OUTPUT_DIR", DefaultOutputDir),
		PresetsFile: os.Getenv("PRESETS_FILE"),

		ListenAddr:     GetEnvOrDefault("LISTEN_ADDR", DefaultListenAddr),
		MaxUploadBytes: maxUpload,
		RateLimitRPS:   ParseFloat64Env("RATE_LIMIT_RPS", DefaultRateLimitRPS),
		RateLimitBurst: ParseIntEnv("RATE_LIMIT_BURST", DefaultRateLimitBurst),

		BatchWorkers: ParseIntEnv("BATCH_WORKERS", DefaultBatchWorkers),
		JPEGQuality:  ParseIntEnv("JPEG_QUALITY", DefaultJPEGQuality),
		HistorySize:  ParseIntEnv("HISTORY_SIZE", DefaultHistorySize),

		LogFile:  GetEnvOrDefault("LOG_FILE", DefaultLogFile),
		LogLevel: GetEnvOrDefault("LOG_LEVEL", DefaultLogLevel),
		DevMode:  ParseBoolEnv("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.PoolSize < 1:
		return ErrInvalidValue("INFERENCE_POOL_SIZE", fmt.Sprint(c.PoolSize), "must be at least 1")
	case c.InferTimeout <= 0:
		return ErrInvalidValue("INFERENCE_TIMEOUT", c.InferTimeout.String(), "must be positive")
	case c.BatchWorkers < 1:
		return ErrInvalidValue("BATCH_WORKERS", fmt.Sprint(c.BatchWorkers), "must be at least 1")
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return ErrInvalidValue("JPEG_QUALITY", fmt.Sprint(c.JPEGQuality), "must be between 1 and 100")
	case c.RateLimitRPS < 0:
		return ErrInvalidValue("RATE_LIMIT_RPS", fmt.Sprint(c.RateLimitRPS), "must not be negative")
	case c.RateLimitRPS > 0 && c.RateLimitBurst < 1:
		return ErrInvalidValue("RATE_LIMIT_BURST", fmt.Sprint(c.RateLimitBurst), "must be at least 1")
	case c.HistorySize < 1:
		return ErrInvalidValue("HISTORY_SIZE", fmt.Sprint(c.HistorySize), "must be at least 1")
	case c.ModelDir == "":
		return ErrMissingConfig("MODEL_DIR")
	}
	return nil
}

// EnsureDirectories creates the upload and output directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.UploadDir, c.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ErrDirUnusable(dir, err)
		}
	}
	return nil
}

// checksumsFromEnv collects MODEL_SHA256_* variables. The suffix maps back to
// a file name by lowercasing and turning the final underscore into a dot:
// MODEL_SHA256_PTS_IN_HULL_NPY -> pts_in_hull.npy.
func checksumsFromEnv(environ []string) map[string]string {
	sums := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, checksumEnvPrefix) || value == "" {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, checksumEnvPrefix))
		if i := strings.LastIndex(name, "_"); i > 0 {
			name = name[:i] + "." + name[i+1:]
		}
		sums[filepath.Base(name)] = strings.ToLower(strings.TrimSpace(value))
	}
	return sums
}
