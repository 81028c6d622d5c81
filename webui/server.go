// Package webui serves the browser front end: the embedded upload page, the
// JSON API behind it, output downloads and a websocket activity feed.
//
// Components:
//   - StaticAssetHandler serves the embedded page
//   - LoggingMiddleware logs every request except health polling
//   - RateLimiter throttles the colorize endpoints per client IP
//   - Hub pushes batch progress and task completion to websocket clients
//   - Server wires them to a model, a preset registry and a metrics store
package webui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"colorizer/colorize"
	"colorizer/core"
	"colorizer/imageio"
	"colorizer/metrics"
	"colorizer/presets"

	"go.uber.org/zap"
)

// errShuttingDown is returned for requests that arrive after shutdown began.
var errShuttingDown = errors.New("server is shutting down")

// Model is the inference backend the server colorizes with.
type Model interface {
	colorize.Inferencer
	// Ready reports whether the network is loaded
	Ready() bool
}

// OperationTracker lets in-flight requests hold off shutdown.
// *shutdown.Manager implements it.
type OperationTracker interface {
	WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error
	IsShuttingDown() bool
}

// ServerConfig configures the Server.
type ServerConfig struct {
	// Addr to listen on (default ":5000")
	Addr string

	// UploadDir holds uploads while they are processed
	UploadDir string

	// OutputDir receives batch results and backs /download/
	OutputDir string

	// MaxUploadBytes caps a request body (default 16 MB)
	MaxUploadBytes int64

	// BatchWorkers bounds concurrent files in one batch request
	BatchWorkers int

	// OutputQuality is the encoding quality of batch outputs
	OutputQuality int

	// RateLimitRPS and RateLimitBurst throttle the colorize endpoints
	RateLimitRPS   float64
	RateLimitBurst int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// HistoryLimit is the default and maximum number of /api/history lines
	HistoryLimit int
}

// DefaultServerConfig returns a ServerConfig with the core defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           core.DefaultListenAddr,
		UploadDir:      core.DefaultUploadDir,
		OutputDir:      core.DefaultOutputDir,
		MaxUploadBytes: core.DefaultMaxUploadBytes,
		BatchWorkers:   core.DefaultBatchWorkers,
		OutputQuality:  imageio.DefaultQuality,
		RateLimitRPS:   core.DefaultRateLimitRPS,
		RateLimitBurst: core.DefaultRateLimitBurst,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Minute,
		IdleTimeout:    120 * time.Second,
		HistoryLimit:   core.DefaultHistorySize,
	}
}

// ServerConfigFrom derives a ServerConfig from the application config.
func ServerConfigFrom(cfg *core.Config) ServerConfig {
	sc := DefaultServerConfig()
	sc.Addr = cfg.ListenAddr
	sc.UploadDir = cfg.UploadDir
	sc.OutputDir = cfg.OutputDir
	sc.MaxUploadBytes = cfg.MaxUploadBytes
	sc.BatchWorkers = cfg.BatchWorkers
	sc.OutputQuality = cfg.JPEGQuality
	sc.RateLimitRPS = cfg.RateLimitRPS
	sc.RateLimitBurst = cfg.RateLimitBurst
	sc.HistoryLimit = cfg.HistorySize
	return sc
}

func (c *ServerConfig) applyDefaults() {
	d := DefaultServerConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.UploadDir == "" {
		c.UploadDir = d.UploadDir
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = d.BatchWorkers
	}
	if c.OutputQuality <= 0 {
		c.OutputQuality = d.OutputQuality
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
}

// Deps are the collaborators a Server needs. Presets and Tracker may be nil.
type Deps struct {
	Model   Model
	Presets *presets.Registry
	Store   *metrics.Store
	Tracker OperationTracker
}

// Server is the HTTP front end.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	logger     *zap.Logger

	model   Model
	presets *presets.Registry
	store   *metrics.Store
	tracker OperationTracker

	hub       *Hub
	limiter   *RateLimiter
	loggingMw *LoggingMiddleware
	static    http.Handler
}

// NewServer creates a Server. Upload and output directories are created if
// missing.
func NewServer(config ServerConfig, deps Deps, logger *zap.Logger) (*Server, error) {
	if deps.Model == nil {
		return nil, errors.New("webui: model is required")
	}
	if deps.Store == nil {
		return nil, errors.New("webui: metrics store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	config.applyDefaults()

	for _, dir := range []string{config.UploadDir, config.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		logger:    logger,
		model:     deps.Model,
		presets:   deps.Presets,
		store:     deps.Store,
		tracker:   deps.Tracker,
		hub:       NewHub(DefaultHubConfig(), logger.Named("ws")),
		limiter:   NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst),
		loggingMw: NewLoggingMiddleware(logger.Named("http"), "/health", "/api/status"),
		static:    NewStaticAssetHandler(),
	}
	s.hub.SetInitial(func() WSMessage {
		return NewWSMessage(MessageTypeInitial, s.store.Status(s.model.Ready()))
	})
	s.RegisterRoutes(s.mux)

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger.Info("web server created",
		zap.String("addr", config.Addr),
		zap.String("upload_dir", config.UploadDir),
		zap.String("output_dir", config.OutputDir),
		zap.Float64("rate_limit_rps", config.RateLimitRPS))
	return s, nil
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.loggingMw.Handler(s.mux)
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and blocks until Shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.limiter.StartCleanupTicker(ctx, time.Minute)

	s.logger.Info("web server listening", zap.String("addr", ln.Addr().String()))
	err := s.httpServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and then
// disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	err := s.httpServer.Shutdown(ctx)
	if hubErr := s.hub.Close(ctx); hubErr != nil {
		err = errors.Join(err, hubErr)
	}
	if err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	s.logger.Info("web server stopped")
	return nil
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// track runs fn as a tracked operation so shutdown waits for it.
func (s *Server) track(ctx context.Context, name string, fn func(context.Context) error) error {
	if s.tracker == nil {
		return fn(ctx)
	}
	ran := false
	err := s.tracker.WrapOperation(ctx, name, func(ctx context.Context) error {
		ran = true
		return fn(ctx)
	})
	if err != nil && !ran && s.tracker.IsShuttingDown() {
		return errShuttingDown
	}
	return err
}
