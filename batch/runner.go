package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"colorizer/colorize"
	"colorizer/imageio"
	"colorizer/logging"

	"go.uber.org/zap"
)

// Default runner values.
const (
	DefaultWorkers = 2
)

// Config holds runner settings.
type Config struct {
	// Settings are applied to every file
	Settings colorize.Settings
	// Quality is the output encoding quality
	Quality int
	// Workers bounds concurrent jobs
	Workers int
}

// Runner colorizes files with a shared inferencer. One file's failure never
// aborts the run. Cancelling the context stops scheduling new files; files
// already in the pipeline finish.
type Runner struct {
	infer  colorize.Inferencer
	cfg    Config
	logger *zap.Logger

	// OnProgress, when set, is called after every job. Calls are serialized.
	OnProgress func(Progress)
}

// NewRunner creates a runner. Zero config values take defaults.
func NewRunner(infer colorize.Inferencer, cfg Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Quality == 0 {
		cfg.Quality = imageio.DefaultQuality
	}
	if cfg.Settings == (colorize.Settings{}) {
		cfg.Settings = colorize.DefaultSettings()
	}
	return &Runner{infer: infer, cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// Run colorizes paths into outDir.
func (r *Runner) Run(ctx context.Context, paths []string, outDir string) (Report, error) {
	return r.RunJobs(ctx, JobsFor(paths), outDir)
}

// RunJobs colorizes jobs into outDir. The only error returned is a setup
// failure (invalid settings, unusable output directory); per-file errors are
// recorded in the report.
func (r *Runner) RunJobs(ctx context.Context, jobs []Job, outDir string) (Report, error) {
	start := time.Now()
	report := Report{
		Items:      make([]ItemResult, len(jobs)),
		TotalCount: len(jobs),
		OutputDir:  outDir,
	}

	if err := r.cfg.Settings.Validate(); err != nil {
		return report, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return report, fmt.Errorf("create output directory: %w", err)
	}

	r.logger.Info("batch started",
		zap.Int("files", len(jobs)),
		zap.Int("workers", r.cfg.Workers),
		zap.String("output_dir", outDir),
		logging.Settings(r.cfg.Settings))

	indexes := make(chan int)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	finish := func(i int, item ItemResult) {
		mu.Lock()
		defer mu.Unlock()
		report.Items[i] = item
		completed++
		if r.OnProgress != nil {
			r.OnProgress(Progress{Completed: completed, Total: len(jobs), Item: item})
		}
	}

	workers := min(r.cfg.Workers, max(len(jobs), 1))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				job := jobs[i]
				finish(i, r.Process(job.Input, r.outputPath(job, outDir)))
			}
		}()
	}

	next := 0
schedule:
	for ; next < len(jobs); next++ {
		select {
		case <-ctx.Done():
			break schedule
		case indexes <- next:
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		report.Items[i] = ItemResult{
			Input: jobs[i].Input,
			Error: ErrSkipped.Error(),
			Err:   fmt.Errorf("%w: %v", ErrSkipped, ctx.Err()),
		}
	}

	for _, item := range report.Items {
		if item.Success {
			report.ProcessedCount++
		}
		if item.Degraded {
			report.DegradedCount++
		}
	}
	report.Duration = time.Since(start)

	r.logger.Info("batch complete",
		zap.Int("processed", report.ProcessedCount),
		zap.Int("total", report.TotalCount),
		zap.Int("degraded", report.DegradedCount),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// outputPath derives the output file. WebP outputs are written as PNG when
// this build cannot encode WebP.
func (r *Runner) outputPath(job Job, outDir string) string {
	name := job.Name
	if name == "" {
		name = filepath.Base(job.Input)
	}
	if f, ok := imageio.FormatFromPath(name); ok && f == imageio.FormatWebP && !imageio.CanEncodeWebP() {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + imageio.FormatPNG.Ext()
	}
	return filepath.Join(outDir, OutputName(name))
}

// Process colorizes a single file into output. A degraded pipeline result
// is still written and counts as a success.
func (r *Runner) Process(input, output string) ItemResult {
	start := time.Now()
	item := ItemResult{Input: input}
	fail := func(err error) ItemResult {
		item.Err = err
		item.Error = err.Error()
		item.Duration = time.Since(start)
		r.logger.Warn("batch item failed",
			logging.Input(input),
			zap.Error(err))
		return item
	}

	if !imageio.IsSupportedExt(output) {
		return fail(fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(input)))
	}

	img, _, err := imageio.Load(input)
	if err != nil {
		return fail(err)
	}

	res, err := colorize.Colorize(img, r.infer, r.cfg.Settings)
	if err != nil {
		return fail(err)
	}
	if res.Degraded {
		r.logger.Warn("colorization degraded to grayscale",
			append(logging.Degraded(res.Err), logging.Input(input))...)
	}

	if err := imageio.Save(output, res.Image, r.cfg.Quality); err != nil {
		return fail(err)
	}

	item.Output = output
	item.Success = true
	item.Degraded = res.Degraded
	item.Duration = time.Since(start)
	r.logger.Debug("batch item complete",
		logging.Input(input),
		logging.Output(output),
		logging.ImageSize(img.Bounds()),
		logging.Duration(start))
	return item
}
