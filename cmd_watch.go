package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"colorizer/batch"
	"colorizer/core"
	"colorizer/shutdown"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

func runWatch(a *app, args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: colorizer watch [flags] <inbox folder>")
		fs.PrintDefaults()
	}
	f := newBatchFlags(a, fs, "output folder (default OUTPUT_DIR)")
	settle := fs.Duration("settle", batch.DefaultSettle, "quiet period before a new file is read")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return a.fail(usagef("watch takes exactly one folder"))
	}
	inbox := fs.Arg(0)
	if info, err := os.Stat(inbox); err != nil || !info.IsDir() {
		return a.fail(usagef("%s is not a folder", inbox))
	}

	mgr := shutdown.NewManager(a.log.Zap().Named("shutdown"))
	mgr.Start()
	ctx := mgr.Context()

	r, model, err := a.runner(ctx, f)
	if err != nil {
		return a.fail(err)
	}
	mgr.Register("model", shutdown.PriorityModel, func(context.Context) error {
		return model.Close()
	})
	mgr.Register("logs", shutdown.PriorityLogs, func(context.Context) error {
		a.log.Sync()
		return nil
	})

	outDir := *f.output
	if outDir == "" {
		outDir = a.cfg.OutputDir
	}

	var done, failed atomic.Int64
	w := batch.NewWatcher(r, inbox, outDir, a.log.Zap().Named("watch"))
	w.SetSettle(*settle)
	w.OnResult = func(item batch.ItemResult) {
		name := filepath.Base(item.Input)
		switch {
		case !item.Success:
			failed.Add(1)
			color.New(color.FgRed).Fprintf(a.stdout, "✗ %s: %s\n", name, item.Error)
		case item.Degraded:
			done.Add(1)
			color.New(color.FgYellow).Fprintf(a.stdout, "! %s -> %s (grayscale fallback)\n", name, item.Output)
		default:
			done.Add(1)
			color.New(color.FgGreen).Fprintf(a.stdout, "✓ %s -> %s\n", name, item.Output)
		}
	}

	fmt.Fprintf(a.stdout, "Watching %s (%s), writing to %s. Press Ctrl+C to stop.\n",
		inbox, settingsSummary(r.Config().Settings), outDir)

	watchErr := w.Run(ctx)
	interrupted := ctx.Err() != nil
	mgr.Shutdown()

	a.log.Info("watch stopped",
		zap.Int64("processed", done.Load()),
		zap.Int64("failed", failed.Load()))
	fmt.Fprintf(a.stdout, "%d processed, %d failed\n", done.Load(), failed.Load())

	if watchErr != nil {
		return a.fail(watchErr)
	}
	if interrupted {
		return mgr.ExitCode()
	}
	return core.ExitCodeSuccess
}
