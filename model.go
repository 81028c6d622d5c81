package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"colorizer/colorize"
	"colorizer/colornet"
	"colorizer/core"
	"colorizer/presets"

	"go.uber.org/zap"
)

// modelConfig maps the application config onto the model runtime.
func (a *app) modelConfig() colornet.Config {
	return colornet.Config{
		ModelDir:  a.cfg.ModelDir,
		PoolSize:  a.cfg.PoolSize,
		Timeout:   a.cfg.InferTimeout,
		Checksums: a.cfg.ModelChecksums,
	}
}

// loadModel brings up the inference service. Missing files are downloaded
// first when MODEL_BASE_URL is set. The service is returned even on error so
// callers that tolerate a missing model can keep running with it.
func (a *app) loadModel(ctx context.Context) (*colornet.Service, error) {
	if a.cfg.ModelBaseURL != "" {
		fetcher := colornet.NewFetcher(a.cfg.ModelBaseURL, a.cfg.ModelDir, a.cfg.ModelChecksums, a.log.Zap().Named("fetch"))
		if fetched, err := fetcher.Ensure(ctx); err != nil {
			a.log.Warn("model download failed", zap.Error(err))
		} else if len(fetched) > 0 {
			a.log.Info("model files downloaded", zap.Strings("files", fetched))
		}
	}

	svc := colornet.NewService(a.modelConfig(), a.log.Zap().Named("colornet"))
	if err := svc.Load(ctx); err != nil {
		return svc, core.ErrModelMissing(a.cfg.ModelDir, err)
	}
	return svc, nil
}

// loadPresets returns the built-ins merged with PRESETS_FILE, if set.
func (a *app) loadPresets() (*presets.Registry, error) {
	registry := presets.NewRegistry()
	if a.cfg.PresetsFile == "" {
		return registry, nil
	}
	n, err := registry.LoadFile(a.cfg.PresetsFile)
	if err != nil {
		return nil, core.ErrInvalidValue("PRESETS_FILE", a.cfg.PresetsFile, err.Error())
	}
	a.log.Info("user presets loaded", zap.String("file", a.cfg.PresetsFile), zap.Int("count", n))
	return registry, nil
}

// settingsFlags registers the pipeline parameters on a flag set. Flags left
// unset keep the preset's value, or the default without a preset.
type settingsFlags struct {
	fs     *flag.FlagSet
	preset string
	style  string

	intensity, brightness, contrast, saturation, warmth, sharpness float64
}

func newSettingsFlags(fs *flag.FlagSet) *settingsFlags {
	f := &settingsFlags{fs: fs}
	fs.StringVar(&f.preset, "preset", "", "start from a named preset")
	fs.StringVar(&f.style, "style", "", "style: natural, vibrant, vintage, artistic, dramatic or cinematic")
	fs.Float64Var(&f.intensity, "intensity", colorize.DefaultIntensity, "style intensity (0, 2]")
	fs.Float64Var(&f.brightness, "brightness", 0, "brightness adjustment [-100, 100]")
	fs.Float64Var(&f.contrast, "contrast", 0, "contrast adjustment [-100, 100]")
	fs.Float64Var(&f.saturation, "saturation", 0, "saturation adjustment [-100, 100]")
	fs.Float64Var(&f.warmth, "warmth", 0, "warmth adjustment [-50, 50]")
	fs.Float64Var(&f.sharpness, "sharpness", 0, "sharpness adjustment [-100, 100]")
	return f
}

// resolve builds validated settings after the flag set has been parsed.
func (f *settingsFlags) resolve(registry *presets.Registry) (colorize.Settings, error) {
	s := colorize.DefaultSettings()
	if f.preset != "" {
		p, err := registry.Get(f.preset)
		if err != nil {
			return s, err
		}
		s = p.Settings
	}
	if f.style != "" {
		style, err := colorize.ParseStyle(f.style)
		if err != nil {
			return s, err
		}
		s.Style = style
	}

	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	fields := []struct {
		name     string
		src, dst *float64
	}{
		{"intensity", &f.intensity, &s.Intensity},
		{"brightness", &f.brightness, &s.Brightness},
		{"contrast", &f.contrast, &s.Contrast},
		{"saturation", &f.saturation, &s.Saturation},
		{"warmth", &f.warmth, &s.Warmth},
		{"sharpness", &f.sharpness, &s.Sharpness},
	}
	for _, fl := range fields {
		if set[fl.name] {
			*fl.dst = *fl.src
		}
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// usageError marks bad command-line usage; it maps to ExitCodeConfig.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exitCode maps command errors to process exit codes.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return core.ExitCodeSuccess
	case errors.As(err, &ue):
		return core.ExitCodeConfig
	case errors.Is(err, colorize.ErrInvalidSettings), errors.Is(err, colorize.ErrUnknownStyle), errors.Is(err, presets.ErrUnknownPreset):
		return core.ExitCodeConfig
	}
	return core.ExitCodeFor(err)
}

// fail prints err and returns its exit code.
func (a *app) fail(err error) int {
	printError(a.stderr, err)
	return exitCode(err)
}

// parseFlags parses args, printing flag errors. ok is false when the
// command should stop with the returned code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return core.ExitCodeSuccess, false
		}
		return core.ExitCodeConfig, false
	}
	return 0, true
}

// styleName is the lower-case form used on the command line and in the API.
func styleName(s colorize.Style) string {
	return strings.ToLower(s.String())
}
