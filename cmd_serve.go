package main

import (
	"context"
	"flag"
	"time"

	"colorizer/core"
	"colorizer/metrics"
	"colorizer/shutdown"
	"colorizer/webui"

	"go.uber.org/zap"
)

func runServe(a *app, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	addr := fs.String("addr", a.cfg.ListenAddr, "listen address")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	a.cfg.ListenAddr = *addr

	mgr := shutdown.NewManager(a.log.Zap().Named("shutdown"))
	mgr.Start()
	return a.serve(mgr)
}

// serve runs the web interface until mgr's context is cancelled, then shuts
// everything down in priority order. A missing model is not fatal: the
// server starts and reports "Model not loaded" until restarted with one.
func (a *app) serve(mgr *shutdown.Manager) int {
	ctx := mgr.Context()
	logger := a.log.Zap()

	if err := a.cfg.EnsureDirectories(); err != nil {
		return a.fail(err)
	}
	registry, err := a.loadPresets()
	if err != nil {
		return a.fail(err)
	}

	model, err := a.loadModel(ctx)
	if err != nil {
		logger.Warn("starting without a colorization model", zap.Error(err))
	}

	store := metrics.NewStore(metrics.StoreConfig{
		HistoryCapacity: a.cfg.HistorySize,
		Version:         core.Version,
	}, time.Now())

	srv, err := webui.NewServer(webui.ServerConfigFrom(a.cfg), webui.Deps{
		Model:   model,
		Presets: registry,
		Store:   store,
		Tracker: mgr,
	}, logger.Named("webui"))
	if err != nil {
		model.Close()
		return a.fail(err)
	}

	mgr.Register("http", shutdown.PriorityHTTP, srv.Shutdown)
	mgr.Register("model", shutdown.PriorityModel, func(context.Context) error {
		return model.Close()
	})
	mgr.Register("uploads", shutdown.PriorityFiles, shutdown.CleanupUploads(logger.Named("cleanup"), a.cfg.UploadDir, 0))
	mgr.Register("logs", shutdown.PriorityLogs, func(context.Context) error {
		a.log.Sync()
		return nil
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	a.log.Info("colorizer started",
		zap.String("addr", a.cfg.ListenAddr),
		zap.Bool("model_loaded", model.Ready()),
		zap.String("version", core.GetVersionInfo()))

	code := core.ExitCodeSuccess
	select {
	case err := <-errc:
		if err != nil {
			logger.Error("web server stopped unexpectedly", zap.Error(err))
			code = core.ExitCodeError
		}
	case <-ctx.Done():
	}

	if err := mgr.Shutdown(); err != nil && code == core.ExitCodeSuccess {
		code = core.ExitCodeError
	}
	if code == core.ExitCodeSuccess {
		code = mgr.ExitCode()
	}
	return code
}
