package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage wraps flag parsing failures.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags override the render and page sections of the config.
type renderFlags struct {
	onePage    bool
	onePageSet bool
	backend    string
	engine     string
	timeout    string
	pageSize   string
	fontDir    string
}

// outputFlags holds output mode flags.
type outputFlags struct {
	html     bool // Output HTML alongside PDF
	htmlOnly bool // Output HTML only, skip PDF
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common      commonFlags
	output      string
	workers     int
	render      renderFlags
	outputMode  outputFlags
	printConfig bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common       commonFlags
	addr         string
	workers      int
	maxBodyBytes int64
	render       renderFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing and debug logs")
}

// addRenderFlags adds render flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.BoolVarP(&f.onePage, "one-page", "1", false, "compress the layout to fit one page")
	fs.StringVarP(&f.backend, "backend", "b", "", "render backend: native, html")
	fs.StringVar(&f.engine, "engine", "", "print engine for the html backend: rod, chromedp, wkhtmltopdf")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g., 30s, 2m)")
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: a4, letter, legal")
	fs.StringVar(&f.fontDir, "font-dir", "", "directory with preferred TTF fonts")
}

// addOutputFlags adds output mode flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.BoolVar(&f.html, "html", false, "write the styled HTML alongside the PDF")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "write the styled HTML only, skip the PDF")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet(cmdConvert, flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the effective config as YAML and exit")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addOutputFlags(fs, &f.outputMode)

	fs.Usage = func() { printConvertUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	f.render.onePageSet = fs.Changed("one-page")

	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, error) {
	fs := flag.NewFlagSet(cmdServe, flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (e.g., :8080)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "converter pool size (0 = auto)")
	fs.Int64Var(&f.maxBodyBytes, "max-body", 0, "maximum request body in bytes")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, fs.Args())
	}
	f.render.onePageSet = fs.Changed("one-page")

	return f, nil
}
