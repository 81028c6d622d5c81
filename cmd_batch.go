package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"colorizer/batch"
	"colorizer/colorize"
	"colorizer/colornet"
	"colorizer/core"
	"colorizer/shutdown"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// batchFlags are shared by the batch and watch commands.
type batchFlags struct {
	settings *settingsFlags
	output   *string
	workers  *int
	quality  *int
}

func newBatchFlags(a *app, fs *flag.FlagSet, outputHelp string) *batchFlags {
	return &batchFlags{
		settings: newSettingsFlags(fs),
		output:   fs.String("o", "", outputHelp),
		workers:  fs.Int("workers", a.cfg.BatchWorkers, "concurrent files"),
		quality:  fs.Int("quality", a.cfg.JPEGQuality, "output quality 1-100"),
	}
}

// runner resolves the settings, loads the model and builds a runner. The
// caller owns the returned service.
func (a *app) runner(ctx context.Context, f *batchFlags) (*batch.Runner, *colornet.Service, error) {
	if *f.workers < 1 {
		return nil, nil, usagef("-workers must be at least 1")
	}
	if *f.quality < 1 || *f.quality > 100 {
		return nil, nil, usagef("-quality must be between 1 and 100")
	}
	registry, err := a.loadPresets()
	if err != nil {
		return nil, nil, err
	}
	settings, err := f.settings.resolve(registry)
	if err != nil {
		return nil, nil, err
	}
	model, err := a.loadModel(ctx)
	if err != nil {
		model.Close()
		return nil, nil, err
	}
	r := batch.NewRunner(model, batch.Config{
		Settings: settings,
		Quality:  *f.quality,
		Workers:  *f.workers,
	}, a.log.Zap().Named("batch"))
	return r, model, nil
}

func runBatch(a *app, args []string) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: colorizer batch [flags] <folder>")
		fs.PrintDefaults()
	}
	f := newBatchFlags(a, fs, "output folder (default OUTPUT_DIR/colorized_batch_<timestamp>)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return a.fail(usagef("batch takes exactly one folder"))
	}

	paths, err := batch.Scan(fs.Arg(0))
	if err != nil {
		return a.fail(err)
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

	outDir := *f.output
	if outDir == "" {
		outDir = filepath.Join(a.cfg.OutputDir, batch.OutputDirName(time.Now()))
	}

	fmt.Fprintf(a.stdout, "Colorizing %d images from %s (%s, %d workers)\n",
		len(paths), fs.Arg(0), settingsSummary(r.Config().Settings), r.Config().Workers)
	r.OnProgress = func(p batch.Progress) { printProgress(a, p) }

	var report batch.Report
	runErr := mgr.WrapOperation(ctx, "batch", func(ctx context.Context) error {
		var err error
		report, err = r.Run(ctx, paths, outDir)
		return err
	})
	interrupted := ctx.Err() != nil
	mgr.Shutdown()
	if runErr != nil {
		if interrupted {
			return mgr.ExitCode()
		}
		return a.fail(runErr)
	}

	printReport(a, report)
	switch {
	case interrupted:
		return mgr.ExitCode()
	case report.ProcessedCount == 0:
		return core.ExitCodeError
	}
	return core.ExitCodeSuccess
}

func printProgress(a *app, p batch.Progress) {
	prefix := fmt.Sprintf("[%d/%d]", p.Completed, p.Total)
	item := p.Item
	switch {
	case item.Success && item.Degraded:
		color.New(color.FgYellow).Fprintf(a.stdout, "%s ! %s (grayscale fallback)\n", prefix, filepath.Base(item.Input))
	case item.Success:
		color.New(color.FgGreen).Fprintf(a.stdout, "%s ✓ %s\n", prefix, filepath.Base(item.Input))
	default:
		color.New(color.FgRed).Fprintf(a.stdout, "%s ✗ %s: %s\n", prefix, filepath.Base(item.Input), item.Error)
	}
}

func printReport(a *app, report batch.Report) {
	bold := color.New(color.Bold)
	bold.Fprintf(a.stdout, "\n%d/%d files processed", report.ProcessedCount, report.TotalCount)
	fmt.Fprintf(a.stdout, " in %s\n", report.Duration.Round(time.Millisecond))
	if report.DegradedCount > 0 {
		color.New(color.FgYellow).Fprintf(a.stdout, "%d written without color\n", report.DegradedCount)
	}
	if n := report.FailedCount(); n > 0 {
		color.New(color.FgRed).Fprintf(a.stdout, "%d failed\n", n)
	}
	fmt.Fprintf(a.stdout, "Output: %s\n", report.OutputDir)
	a.log.Info("batch finished",
		zap.Int("processed", report.ProcessedCount),
		zap.Int("total", report.TotalCount),
		zap.Int("degraded", report.DegradedCount),
		zap.String("output_dir", report.OutputDir),
		zap.Duration("elapsed", report.Duration))
}

// settingsSummary describes the settings a runner applies.
func settingsSummary(s colorize.Settings) string {
	return fmt.Sprintf("%s, intensity %.2g", styleName(s.Style), s.Intensity)
}
