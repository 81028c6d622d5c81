package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"colorizer/presets"

	"github.com/fatih/color"
)

func runPresets(a *app, args []string) int {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	registry, err := a.loadPresets()
	if err != nil {
		return a.fail(err)
	}

	switch sub {
	case "list":
		listPresets(a, registry)
		return 0
	case "export":
		return exportPresets(a, registry, args)
	default:
		return a.fail(usagef("unknown presets command %q (want list or export)", sub))
	}
}

func listPresets(a *app, registry *presets.Registry) {
	color.New(color.Bold).Fprintln(a.stdout, "Presets:")
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tSTYLE\tINTENSITY\tBRIGHT\tCONTRAST\tSAT\tWARMTH\tSHARP")
	for _, p := range registry.All() {
		s := p.Settings
		fmt.Fprintf(tw, "  %s\t%s\t%.1f\t%+.0f\t%+.0f\t%+.0f\t%+.0f\t%+.0f\n",
			p.Name, styleName(s.Style), s.Intensity,
			s.Brightness, s.Contrast, s.Saturation, s.Warmth, s.Sharpness)
	}
	tw.Flush()
}

// exportPresets writes presets as YAML that PRESETS_FILE accepts, so a
// built-in can be copied and edited.
func exportPresets(a *app, registry *presets.Registry, args []string) int {
	fs := flag.NewFlagSet("presets export", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: colorizer presets export [-o file] [name...]")
		fs.PrintDefaults()
	}
	output := fs.String("o", "", "write to a file instead of stdout")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	selected := registry.All()
	if fs.NArg() > 0 {
		selected = selected[:0:0]
		for _, name := range fs.Args() {
			p, err := registry.Get(name)
			if err != nil {
				return a.fail(err)
			}
			selected = append(selected, p)
		}
	}

	data, err := presets.Marshal(selected)
	if err != nil {
		return a.fail(err)
	}
	if *output == "" {
		a.stdout.Write(data)
		return 0
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.stdout, "Exported %d presets to %s\n", len(selected), *output)
	return 0
}
