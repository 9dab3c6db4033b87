package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadMarkdown       = errors.New("failed to read markdown file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// stdioPath selects stdin for input and stdout for output.
const stdioPath = "-"

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (*resume2pdf.Converter, error)
	Release(*resume2pdf.Converter)
	Size() int
}

// Compile-time interface implementation check.
var _ Pool = (*resume2pdf.ConverterPool)(nil)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
	Pages      int
	Ratio      float64
	Warnings   []resume2pdf.Warning
}

// conversionParams groups parameters shared across the batch.
type conversionParams struct {
	smartOnePage bool
	backend      resume2pdf.Backend
	html         bool
	htmlOnly     bool
	stdin        io.Reader
	stdout       io.Writer
}

// runConvertCmd parses flags, builds the pool and converts every input.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, inputs, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common, flags.render, env)
	if err != nil {
		return err
	}
	if flags.printConfig {
		out, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(out)
		return err
	}

	backend, err := resume2pdf.ParseBackend(cfg.Render.Backend)
	if err != nil {
		return err
	}

	files, err := discoverAll(inputs, flags.output)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, flags.common, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts, err := converterOptions(cfg, logger)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = cfg.Render.Workers
	}
	poolSize := min(resume2pdf.ResolvePoolSize(workers), len(files))
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", poolSize)
	}
	pool := resume2pdf.NewConverterPool(poolSize, opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing converter pool", zap.Error(err))
		}
	}()

	params := &conversionParams{
		smartOnePage: cfg.Render.SmartOnePage,
		backend:      backend,
		html:         flags.outputMode.html,
		htmlOnly:     flags.outputMode.htmlOnly,
		stdin:        env.Stdin,
		stdout:       env.Stdout,
	}

	results := convertBatch(ctx, pool, files, params)

	quiet := flags.common.quiet || isStdout(files)
	failed := printResults(results, quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d of %d conversion(s) failed: %w", failed, len(results), firstError(results))
	}
	return nil
}

// discoverAll expands every positional input into files to convert.
func discoverAll(inputs []string, output string) ([]FileToConvert, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}
	if len(inputs) > 1 && isPDFPath(output) {
		return nil, fmt.Errorf("%w: -o %s names one file but %d inputs were given", ErrUsage, output, len(inputs))
	}

	var files []FileToConvert
	for _, in := range inputs {
		if in == stdioPath {
			if len(inputs) > 1 {
				return nil, fmt.Errorf("%w: %q cannot be combined with other inputs", ErrUsage, stdioPath)
			}
			out := output
			if out == "" {
				out = stdioPath
			}
			return []FileToConvert{{InputPath: stdioPath, OutputPath: out}}, nil
		}

		found, err := discoverFiles(in, output)
		if err != nil {
			return nil, fmt.Errorf("discovering files: %w", err)
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, in)
		}
		files = append(files, found...)
	}
	return files, nil
}

// discoverFiles finds all markdown files under inputPath.
func discoverFiles(inputPath, outputDir string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !fileutil.IsMarkdown(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		outPath := resolveOutputPath(inputPath, outputDir, "")
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !fileutil.IsMarkdown(path) {
			return nil
		}
		files = append(files, FileToConvert{
			InputPath:  path,
			OutputPath: resolveOutputPath(path, outputDir, inputPath),
		})
		return nil
	})
	return files, err
}

// resolveOutputPath determines the PDF output path for a markdown file.
// Files found under a directory keep their relative layout in outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	if isPDFPath(outputDir) {
		return outputDir
	}
	if outputDir != "" && baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			outputDir = filepath.Join(outputDir, filepath.Dir(rel))
		}
	}
	return fileutil.OutputPath(inputPath, outputDir, ".pdf")
}

func isPDFPath(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".pdf")
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > resume2pdf.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, resume2pdf.MaxPoolSize)
	}
	return nil
}

// htmlOutputPath returns the HTML path corresponding to a PDF path.
func htmlOutputPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".html"
}

// convertBatch processes files concurrently, at most pool.Size() at a time.
// A failing file does not stop the others.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))
	var g errgroup.Group
	g.SetLimit(pool.Size())

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ConversionResult{InputPath: f.InputPath, Err: err}
				return nil
			}
			results[i] = convertFile(ctx, pool, f, params)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, pool Pool, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	finish := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := readInput(f.InputPath, params.stdin)
	if err != nil {
		return finish(err)
	}

	conv, err := pool.Acquire(ctx)
	if err != nil {
		return finish(err)
	}
	defer pool.Release(conv)

	input := resume2pdf.Input{
		Markdown:     content,
		SmartOnePage: params.smartOnePage,
		Backend:      params.backend,
		HTMLOnly:     params.htmlOnly,
	}
	res, err := conv.Convert(ctx, input)
	if err != nil {
		return finish(err)
	}
	result.Pages = res.Pages
	result.Ratio = res.Plan.Ratio
	result.Warnings = res.Warnings

	if params.htmlOnly {
		result.OutputPath = htmlOutputPath(f.OutputPath)
		if f.OutputPath == stdioPath {
			result.OutputPath = stdioPath
		}
		return finish(writeOutput(result.OutputPath, res.HTML, params.stdout))
	}

	if params.html && f.OutputPath != stdioPath {
		html := res.HTML
		if len(html) == 0 {
			// The native backend prints no markup; ask for the preview.
			preview, err := conv.Preview(ctx, input)
			if err != nil {
				return finish(err)
			}
			html = preview.HTML
		}
		if err := writeOutput(htmlOutputPath(f.OutputPath), html, params.stdout); err != nil {
			return finish(err)
		}
	}

	return finish(writeOutput(f.OutputPath, res.PDF, params.stdout))
}

// readInput reads a Markdown file, or stdin for "-".
func readInput(path string, stdin io.Reader) (string, error) {
	var (
		content []byte
		err     error
	)
	if path == stdioPath {
		if stdin == nil {
			return "", fmt.Errorf("%w: stdin unavailable", ErrReadMarkdown)
		}
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(path) // #nosec G304 -- discovered path
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}
	return string(content), nil
}

// writeOutput writes data atomically to path, or to stdout for "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdioPath {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating output directory: %w", ErrWriteOutput, err)
	}
	// #nosec G306 -- PDFs are meant to be readable
	if err := fileutil.WriteFileAtomic(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

func isStdout(files []FileToConvert) bool {
	return len(files) == 1 && files[0].OutputPath == stdioPath
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// printResults outputs conversion results and returns the failure count.
// Failures always go to stderr; warnings and progress are silenced by quiet.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v, ratio %.3f", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond), r.Ratio)
			if r.Pages > 0 {
				fmt.Fprintf(env.Stdout, ", %d page(s)", r.Pages)
			}
			fmt.Fprintln(env.Stdout, ")")
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(env.Stderr, "  warning: %s\n", w)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
