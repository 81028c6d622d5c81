package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"colorizer/core"
	"colorizer/logging"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every command needs once configuration is loaded.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *core.Config
	log    *logging.Logger
}

// command is one CLI subcommand. Commands return a process exit code.
type command struct {
	summary string
	run     func(a *app, args []string) int
}

var commands = map[string]command{
	"serve":    {"Run the web interface (default)", runServe},
	"colorize": {"Colorize one image", runColorize},
	"batch":    {"Colorize every image in a folder", runBatch},
	"watch":    {"Colorize images as they arrive in a folder", runWatch},
	"presets":  {"List or export presets", runPresets},
	"models":   {"Check or download the model files", runModels},
	"doctor":   {"Validate configuration, directories and model files", runDoctor},
	"service":  {"Install or control the OS service", runService},
}

// run dispatches args to a command and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "Warning: cannot read .env: %v\n", err)
	}

	name := "serve"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	switch name {
	case "help", "-h", "--help", "-help":
		printUsage(stdout)
		return core.ExitCodeSuccess
	case "version", "--version":
		fmt.Fprintf(stdout, "colorizer %s\n", core.GetVersionInfo())
		return core.ExitCodeSuccess
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command %q\n\n", name)
		printUsage(stderr)
		return core.ExitCodeConfig
	}

	a, err := newApp(stdout, stderr)
	if err != nil {
		printError(stderr, err)
		return core.ExitCodeFor(err)
	}
	defer a.log.Sync()

	a.log.Debug("command starting",
		zap.String("command", name),
		zap.String("version", core.Version))
	return cmd.run(a, args)
}

// newApp loads configuration and builds the logger. Console logs go to
// stderr so command output on stdout stays clean.
func newApp(stdout, stderr io.Writer) (*app, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel, zapcore.InfoLevel)
	if err != nil {
		return nil, core.ErrInvalidValue("LOG_LEVEL", cfg.LogLevel, "expected debug, info, warn or error")
	}

	logger, err := logging.New(logging.Config{
		Development: cfg.DevMode,
		FilePath:    cfg.LogFile,
		Level:       level,
		File:        logging.DefaultFileWriterConfig(),
		Console:     zapcore.AddSync(stderr),
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	return &app{stdout: stdout, stderr: stderr, cfg: cfg, log: logger}, nil
}

func printUsage(w io.Writer) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, "Usage: colorizer <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "version", "Print version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'colorizer <command> -h' for command flags.")
	fmt.Fprintln(w, "Configuration is read from the environment and an optional .env file.")
}

// printError reports err, with the suggested fix for configuration errors.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	if cfgErr, ok := core.IsConfigError(err); ok {
		red.Fprintf(w, "Error: %s\n", cfgErr.Message)
		if cfgErr.Action != "" {
			fmt.Fprintf(w, "  %s\n", cfgErr.Action)
		}
		return
	}
	red.Fprintf(w, "Error: %v\n", err)
}
