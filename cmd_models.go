package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"colorizer/colornet"
	"colorizer/core"
	"colorizer/shutdown"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

func runModels(a *app, args []string) int {
	sub := "check"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "check":
		return checkModels(a)
	case "fetch":
		return fetchModels(a)
	case "checksums":
		return printChecksums(a)
	default:
		return a.fail(usagef("unknown models command %q (want check, fetch or checksums)", sub))
	}
}

// checkModels reports each model file and verifies configured digests.
func checkModels(a *app) int {
	files := colornet.FilesIn(a.cfg.ModelDir)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	color.New(color.Bold).Fprintf(a.stdout, "Model directory: %s\n", a.cfg.ModelDir)
	ok := true
	for _, path := range files.Paths() {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Size() == 0 {
			red.Fprintf(a.stdout, "  ✗ %s missing\n", filepath.Base(path))
			ok = false
			continue
		}
		green.Fprintf(a.stdout, "  ✓ %s (%s)\n", filepath.Base(path), core.FormatBytes(info.Size()))
	}
	if !ok {
		return a.fail(core.ErrModelMissing(a.cfg.ModelDir, colornet.CheckFiles(a.cfg.ModelDir)))
	}

	if len(a.cfg.ModelChecksums) > 0 {
		if err := colornet.Checksums(a.cfg.ModelChecksums).Verify(files); err != nil {
			return a.fail(core.ErrModelMissing(a.cfg.ModelDir, err))
		}
		green.Fprintf(a.stdout, "  ✓ %d checksums verified\n", len(a.cfg.ModelChecksums))
	}
	fmt.Fprintf(a.stdout, "Backend: %s\n", colornet.BackendInfo())
	return 0
}

// fetchModels downloads missing files from MODEL_BASE_URL.
func fetchModels(a *app) int {
	if a.cfg.ModelBaseURL == "" {
		return a.fail(core.ErrMissingConfig("MODEL_BASE_URL"))
	}

	mgr := shutdown.NewManager(a.log.Zap().Named("shutdown"))
	mgr.Start()
	defer mgr.Shutdown()

	fetcher := colornet.NewFetcher(a.cfg.ModelBaseURL, a.cfg.ModelDir, a.cfg.ModelChecksums, a.log.Zap().Named("fetch"))
	missing := fetcher.Missing()
	if len(missing) == 0 {
		fmt.Fprintln(a.stdout, "All model files are present.")
		return 0
	}
	fmt.Fprintf(a.stdout, "Downloading %s from %s\n", strings.Join(missing, ", "), a.cfg.ModelBaseURL)

	fetched, err := fetcher.Ensure(mgr.Context())
	for _, name := range fetched {
		color.New(color.FgGreen).Fprintf(a.stdout, "  ✓ %s\n", name)
	}
	if err != nil {
		if errors.Is(err, colornet.ErrNoModelSource) {
			return a.fail(core.ErrMissingConfig("MODEL_BASE_URL"))
		}
		a.log.Error("model download failed", zap.Error(err))
		return a.fail(core.ErrModelMissing(a.cfg.ModelDir, err))
	}
	return 0
}

// printChecksums prints MODEL_SHA256_* lines for the files on disk.
func printChecksums(a *app) int {
	for _, path := range colornet.FilesIn(a.cfg.ModelDir).Paths() {
		sum, err := colornet.CalculateChecksum(path)
		if err != nil {
			return a.fail(core.ErrModelMissing(a.cfg.ModelDir, err))
		}
		fmt.Fprintf(a.stdout, "%s=%s\n", checksumEnvName(filepath.Base(path)), sum)
	}
	return 0
}

// checksumEnvName is the variable LoadConfig reads a file's digest from.
// This is a pure function with no side effects.
func checksumEnvName(file string) string {
	return "MODEL_SHA256_" + strings.ToUpper(strings.ReplaceAll(file, ".", "_"))
}
