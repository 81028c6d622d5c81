package colornet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"colorizer/colorize"

	"go.uber.org/zap"
)

// Service is the application's inference endpoint. It is constructed
// without touching the model; Load brings the network up and records the
// outcome, so a missing model leaves the service running but not ready.
//
// Service implements colorize.Inferencer.
type Service struct {
	cfg    Config
	logger *zap.Logger
	loader Loader

	mu   sync.RWMutex
	pool *NetPool
	err  error
}

// Option customizes a Service.
type Option func(*Service)

// WithLoader replaces the network loader.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		s.loader = l
	}
}

// NewService creates a service that is not yet ready.
func NewService(cfg Config, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeoutSeconds * time.Second
	}
	s := &Service{
		cfg:    cfg,
		logger: logger,
		loader: NetLoader,
		err:    ErrNotReady,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load validates the model files and loads the first network.
// On failure the service stays not ready and Err reports why.
func (s *Service) Load(ctx context.Context) error {
	start := time.Now()
	files := s.cfg.Files()

	err := s.load(ctx, files)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		s.logger.Warn("colorization model not loaded",
			zap.String("model_dir", s.cfg.ModelDir),
			zap.Error(err))
		return err
	}
	s.err = nil
	s.logger.Info("colorization model loaded",
		zap.String("model_dir", s.cfg.ModelDir),
		zap.Int("pool_size", s.cfg.PoolSize),
		zap.String("backend", BackendInfo()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (s *Service) load(ctx context.Context, files ModelFiles) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if err := files.Check(); err != nil {
		return err
	}
	if len(s.cfg.Checksums) > 0 {
		if err := s.cfg.Checksums.Verify(files); err != nil {
			return err
		}
	}

	pool, err := NewNetPool(s.cfg.PoolSize, files, s.loader)
	if err != nil {
		return err
	}
	if err := pool.Warm(ctx); err != nil {
		pool.Close()
		return err
	}

	s.mu.Lock()
	old := s.pool
	s.pool = pool
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Ready reports whether a network is loaded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err == nil && s.pool != nil && !s.pool.IsClosed()
}

// Err returns why the service is not ready, or nil.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Config returns the runtime configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Infer runs one forward pass, waiting at most the configured timeout for
// a free network.
func (s *Service) Infer(l colorize.Plane) (colorize.Plane, colorize.Plane, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	return s.InferContext(ctx, l)
}

// InferContext is Infer with caller-controlled waiting.
func (s *Service) InferContext(ctx context.Context, l colorize.Plane) (colorize.Plane, colorize.Plane, error) {
	s.mu.RLock()
	pool, err := s.pool, s.err
	s.mu.RUnlock()
	if err != nil {
		return colorize.Plane{}, colorize.Plane{}, err
	}
	if pool == nil {
		return colorize.Plane{}, colorize.Plane{}, ErrNotReady
	}

	start := time.Now()
	a, b, err := pool.Infer(ctx, l)
	if err != nil {
		s.logger.Debug("forward pass failed", zap.Error(err))
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("colornet infer: %w", err)
	}
	s.logger.Debug("forward pass complete",
		zap.Int("width", a.Width),
		zap.Int("height", a.Height),
		zap.Duration("duration", time.Since(start)))
	return a, b, nil
}

// Close releases the loaded networks. The service is not ready afterwards.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	s.err = ErrNotReady
	return nil
}
