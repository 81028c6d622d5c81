package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"time"

	"colorizer/analytics"
	"colorizer/batch"
	"colorizer/colorize"
	"colorizer/imageio"
	"colorizer/logging"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

func runColorize(a *app, args []string) int {
	fs := flag.NewFlagSet("colorize", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: colorizer colorize [flags] <image>")
		fs.PrintDefaults()
	}
	sf := newSettingsFlags(fs)
	output := fs.String("o", "", "output file (default OUTPUT_DIR/colorized_<name>)")
	quality := fs.Int("quality", a.cfg.JPEGQuality, "output quality 1-100")
	compare := fs.String("compare", "", "also write a before/after comparison image here")
	diff := fs.String("diff", "", "also write a difference map here")
	stats := fs.Bool("stats", false, "print color statistics for the input and the result")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return a.fail(usagef("colorize takes exactly one image"))
	}
	input := fs.Arg(0)

	registry, err := a.loadPresets()
	if err != nil {
		return a.fail(err)
	}
	settings, err := sf.resolve(registry)
	if err != nil {
		return a.fail(err)
	}

	src, _, err := imageio.Load(input)
	if err != nil {
		return a.fail(err)
	}

	model, err := a.loadModel(context.Background())
	if err != nil {
		return a.fail(err)
	}
	defer model.Close()

	start := time.Now()
	res, err := colorize.Colorize(src, model, settings)
	if err != nil {
		return a.fail(err)
	}

	out := *output
	if out == "" {
		out = filepath.Join(a.cfg.OutputDir, batch.OutputName(writableName(input)))
	}
	if err := imageio.Save(out, res.Image, *quality); err != nil {
		return a.fail(err)
	}

	fields := []zap.Field{
		logging.Input(input),
		logging.Output(out),
		logging.Settings(settings),
		logging.ImageSize(src.Bounds()),
		logging.Duration(start),
	}
	if res.Degraded {
		a.log.Warn("colorization degraded", append(fields, logging.Degraded(res.Err)...)...)
		color.New(color.FgYellow).Fprintf(a.stdout, "! %s -> %s (grayscale fallback: %v)\n", input, out, res.Err)
	} else {
		a.log.Debug("colorization complete", fields...)
		color.New(color.FgGreen).Fprintf(a.stdout, "✓ %s -> %s (%s)\n", input, out, styleName(settings.Style))
	}

	if *compare != "" {
		cmp, err := analytics.Comparison(src, res.Image)
		if err != nil {
			return a.fail(err)
		}
		if err := imageio.Save(*compare, cmp, *quality); err != nil {
			return a.fail(err)
		}
		fmt.Fprintf(a.stdout, "  comparison: %s\n", *compare)
	}
	if *diff != "" {
		d, err := analytics.Difference(src, res.Image)
		if err != nil {
			return a.fail(err)
		}
		if err := imageio.Save(*diff, d, *quality); err != nil {
			return a.fail(err)
		}
		fmt.Fprintf(a.stdout, "  difference: %s\n", *diff)
	}
	if *stats {
		for _, item := range []struct {
			label string
			img   image.Image
		}{{"input", src}, {"result", res.Image}} {
			if err := printStats(a.stdout, item.label, item.img); err != nil {
				return a.fail(err)
			}
		}
	}
	return 0
}

// writableName swaps the extension for .png when the input format cannot
// be written back (GIF, or WebP without gocv).
func writableName(path string) string {
	name := filepath.Base(path)
	f, ok := imageio.FormatFromPath(name)
	if ok && (f != imageio.FormatWebP || imageio.CanEncodeWebP()) {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + imageio.FormatPNG.Ext()
}

func printStats(w io.Writer, label string, img image.Image) error {
	report, err := analytics.Analyze(img)
	if err != nil {
		return err
	}
	color.New(color.Bold).Fprintf(w, "%s (%dx%d)\n", label, report.Width, report.Height)
	fmt.Fprintf(w, "  mean R %.1f  G %.1f  B %.1f\n",
		report.Means[analytics.Red], report.Means[analytics.Green], report.Means[analytics.Blue])
	fmt.Fprintf(w, "  all channels: mean %.1f  std %.1f  min %d  max %d\n",
		report.Stats.Mean, report.Stats.Std, report.Stats.Min, report.Stats.Max)
	return nil
}
