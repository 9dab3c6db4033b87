package main

// Notes:
// - discoverFiles/resolveOutputPath: we test single files, directory walks
//   with mirrored layout, and explicit .pdf outputs.
// - runConvertCmd: we run real native conversions (pure Go, no browser) and
//   check the files written and the text printed.
// - convertBatch: we test that a failing file does not stop the others and
//   that a cancelled context fails every file.
// The HTML backend is not exercised here; it needs a browser.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/fonts"
)

// ---------------------------------------------------------------------------
// TestResolveOutputPath - Output path derivation
// ---------------------------------------------------------------------------

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		want      string
	}{
		{"next to input", "cv/jane.md", "", "", filepath.Join("cv", "jane.pdf")},
		{"into output dir", "cv/jane.md", "out", "", filepath.Join("out", "jane.pdf")},
		{"explicit pdf", "cv/jane.md", "final/Jane Doe.pdf", "", "final/Jane Doe.pdf"},
		{"explicit pdf upper case", "cv/jane.md", "final/CV.PDF", "", "final/CV.PDF"},
		{"mirrors layout", "cv/2026/jane.markdown", "out", "cv", filepath.Join("out", "2026", "jane.pdf")},
		{"walk without output dir", "cv/2026/jane.md", "", "cv", filepath.Join("cv", "2026", "jane.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir); got != tt.want {
				t.Errorf("resolveOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTMLOutputPath(t *testing.T) {
	t.Parallel()
	if got := htmlOutputPath(filepath.Join("out", "cv.pdf")); got != filepath.Join("out", "cv.html") {
		t.Errorf("htmlOutputPath() = %q", got)
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, 1, resume2pdf.MaxPoolSize} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) = %v", n, err)
		}
	}
	for _, n := range []int{-1, resume2pdf.MaxPoolSize + 1} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Input discovery
// ---------------------------------------------------------------------------

func TestDiscoverFiles_Directory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.md", sampleResume)
	writeFile(t, dir, "nested/b.markdown", sampleResume)
	writeFile(t, dir, "notes.txt", "ignored")

	out := filepath.Join(dir, "out")
	files, err := discoverFiles(dir, out)
	if err != nil {
		t.Fatalf("discoverFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %+v", len(files), files)
	}

	got := map[string]string{}
	for _, f := range files {
		got[filepath.Base(f.InputPath)] = f.OutputPath
	}
	if got["a.md"] != filepath.Join(out, "a.pdf") {
		t.Errorf("a.md -> %q", got["a.md"])
	}
	if got["b.markdown"] != filepath.Join(out, "nested", "b.pdf") {
		t.Errorf("b.markdown -> %q", got["b.markdown"])
	}
}

func TestDiscoverAll(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cv := writeFile(t, dir, "cv.md", sampleResume)
	emptyDir := filepath.Join(dir, "empty")
	if err := os.Mkdir(emptyDir, 0o750); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		inputs  []string
		output  string
		wantErr error
		wantOut string
	}{
		{"none", nil, "", ErrNoInput, ""},
		{"empty dir", []string{emptyDir}, "", ErrNoInput, ""},
		{"stdin to stdout", []string{"-"}, "", nil, "-"},
		{"stdin to file", []string{"-"}, "cv.pdf", nil, "cv.pdf"},
		{"stdin mixed", []string{"-", cv}, "", ErrUsage, ""},
		{"one file", []string{cv}, "", nil, filepath.Join(dir, "cv.pdf")},
		{"missing", []string{filepath.Join(dir, "nope.md")}, "", os.ErrNotExist, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			files, err := discoverAll(tt.inputs, tt.output)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if files[0].OutputPath != tt.wantOut {
				t.Errorf("output = %q, want %q", files[0].OutputPath, tt.wantOut)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunConvertCmd - Native conversions end to end
// ---------------------------------------------------------------------------

func TestRunConvertCmd_Directory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "in/a.md", sampleResume)
	writeFile(t, dir, "in/team/b.md", sampleResume)
	out := filepath.Join(dir, "out")
	env, stdout, _ := testEnv("")

	err := runConvertCmd(context.Background(), []string{filepath.Join(dir, "in"), "-o", out, "-w", "2"}, env)
	if err != nil {
		t.Fatalf("runConvertCmd() error = %v", err)
	}

	readPDF(t, filepath.Join(out, "a.pdf"))
	readPDF(t, filepath.Join(out, "team", "b.pdf"))
	if !strings.Contains(stdout.String(), "2 succeeded, 0 failed") {
		t.Errorf("stdout missing summary:\n%s", stdout.String())
	}
}

func TestRunConvertCmd_HTML(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		flags   []string
		wantPDF bool
	}{
		{"html alongside pdf", []string{"--html"}, true},
		{"html only", []string{"--html-only"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			cv := writeFile(t, dir, "cv.md", sampleResume)
			env, stdout, _ := testEnv("")

			if err := runConvertCmd(context.Background(), append([]string{cv}, tt.flags...), env); err != nil {
				t.Fatalf("runConvertCmd() error = %v", err)
			}

			html, err := os.ReadFile(filepath.Join(dir, "cv.html"))
			if err != nil {
				t.Fatalf("reading HTML: %v", err)
			}
			if !bytes.Contains(html, []byte("Jane Doe")) {
				t.Errorf("HTML missing name:\n%s", html)
			}

			_, statErr := os.Stat(filepath.Join(dir, "cv.pdf"))
			if gotPDF := statErr == nil; gotPDF != tt.wantPDF {
				t.Errorf("pdf written = %v, want %v", gotPDF, tt.wantPDF)
			}
			if !tt.wantPDF && !strings.Contains(stdout.String(), "Created "+filepath.Join(dir, "cv.html")) {
				t.Errorf("stdout = %q", stdout.String())
			}
		})
	}
}

func TestRunConvertCmd_Stdio(t *testing.T) {
	t.Parallel()
	env, stdout, _ := testEnv(sampleResume)

	if err := runConvertCmd(context.Background(), []string{"-"}, env); err != nil {
		t.Fatalf("runConvertCmd() error = %v", err)
	}
	if !bytes.HasPrefix(stdout.Bytes(), []byte("%PDF-")) {
		t.Errorf("stdout does not hold a PDF: %q", stdout.Bytes()[:min(stdout.Len(), 32)])
	}
	if strings.Contains(stdout.String(), "Created") {
		t.Error("progress text mixed into PDF output")
	}
}

func TestRunConvertCmd_OnePageOverflow(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cv := writeFile(t, dir, "long.md", massiveResume(300))
	env, _, stderr := testEnv("")

	if err := runConvertCmd(context.Background(), []string{cv, "--one-page"}, env); err != nil {
		t.Fatalf("runConvertCmd() error = %v", err)
	}
	readPDF(t, filepath.Join(dir, "long.pdf"))
	if !strings.Contains(stderr.String(), string(resume2pdf.WarnContentOverflow)) {
		t.Errorf("stderr missing overflow warning:\n%s", stderr.String())
	}
}

func TestRunConvertCmd_Quiet(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cv := writeFile(t, dir, "cv.md", sampleResume)
	env, stdout, stderr := testEnv("")

	if err := runConvertCmd(context.Background(), []string{cv, "-q"}, env); err != nil {
		t.Fatalf("runConvertCmd() error = %v", err)
	}
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("quiet run printed stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
}

func TestRunConvertCmd_PrintConfig(t *testing.T) {
	t.Parallel()
	env, stdout, _ := testEnv("")
	env.Getenv = func(key string) string {
		if key == "RESUME2PDF_ENGINE" {
			return "chromedp"
		}
		return ""
	}

	if err := runConvertCmd(context.Background(), []string{"--print-config", "-p", "letter", "-1"}, env); err != nil {
		t.Fatalf("runConvertCmd() error = %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"size: letter", "engine: chromedp", "smartOnePage: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("config missing %q:\n%s", want, out)
		}
	}
}

// ---------------------------------------------------------------------------
// TestConvertBatch - Concurrency and failure isolation
// ---------------------------------------------------------------------------

func newTestPool(t *testing.T, size int) *resume2pdf.ConverterPool {
	t.Helper()
	pool := resume2pdf.NewConverterPool(size, resume2pdf.WithFontProvider(fonts.Static(fonts.GoFace())))
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestConvertBatch_PartialFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := []FileToConvert{
		{InputPath: writeFile(t, dir, "a.md", sampleResume), OutputPath: filepath.Join(dir, "a.pdf")},
		{InputPath: filepath.Join(dir, "missing.md"), OutputPath: filepath.Join(dir, "missing.pdf")},
		{InputPath: writeFile(t, dir, "c.md", sampleResume), OutputPath: filepath.Join(dir, "c.pdf")},
	}

	results := convertBatch(context.Background(), newTestPool(t, 2), files, &conversionParams{backend: resume2pdf.BackendNative})

	if len(results) != len(files) {
		t.Fatalf("got %d results, want %d", len(results), len(files))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy files failed: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, ErrReadMarkdown) || !errors.Is(results[1].Err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", results[1].Err)
	}
	readPDF(t, filepath.Join(dir, "a.pdf"))
	readPDF(t, filepath.Join(dir, "c.pdf"))

	summary := countResults(results)
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !errors.Is(firstError(results), os.ErrNotExist) {
		t.Errorf("firstError() = %v", firstError(results))
	}
}

func TestConvertBatch_Canceled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := []FileToConvert{
		{InputPath: writeFile(t, dir, "a.md", sampleResume), OutputPath: filepath.Join(dir, "a.pdf")},
		{InputPath: writeFile(t, dir, "b.md", sampleResume), OutputPath: filepath.Join(dir, "b.pdf")},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := convertBatch(ctx, newTestPool(t, 1), files, &conversionParams{backend: resume2pdf.BackendNative})
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: error = %v, want context.Canceled", r.InputPath, r.Err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "a.pdf")); !os.IsNotExist(err) {
		t.Error("cancelled batch wrote output")
	}
}

func TestConvertBatch_Empty(t *testing.T) {
	t.Parallel()
	if got := convertBatch(context.Background(), newTestPool(t, 1), nil, &conversionParams{}); got != nil {
		t.Errorf("convertBatch(nil) = %v, want nil", got)
	}
}

// ---------------------------------------------------------------------------
// TestPrintResults - Output formatting
// ---------------------------------------------------------------------------

func TestPrintResults(t *testing.T) {
	t.Parallel()
	results := []ConversionResult{
		{InputPath: "a.md", OutputPath: "a.pdf", Ratio: 0.8, Pages: 1},
		{InputPath: "b.md", OutputPath: "b.pdf", Warnings: []resume2pdf.Warning{
			{Kind: resume2pdf.WarnContentOverflow, Message: "too long"},
		}},
		{InputPath: "c.md", Err: errors.New("boom")},
	}

	tests := []struct {
		name          string
		quiet         bool
		verbose       bool
		wantStdout    []string
		notWantStdout []string
		wantStderr    []string
	}{
		{
			name:       "default",
			wantStdout: []string{"Created a.pdf", "Created b.pdf", "2 succeeded, 1 failed"},
			wantStderr: []string{"FAILED c.md: boom", "warning: content_overflow: too long"},
		},
		{
			name:       "verbose",
			verbose:    true,
			wantStdout: []string{"a.md -> a.pdf", "ratio 0.800", "1 page(s)"},
			wantStderr: []string{"FAILED c.md"},
		},
		{
			name:          "quiet",
			quiet:         true,
			notWantStdout: []string{"Created", "succeeded"},
			wantStderr:    []string{"FAILED c.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, stdout, stderr := testEnv("")
			if failed := printResults(results, tt.quiet, tt.verbose, env); failed != 1 {
				t.Errorf("failed = %d, want 1", failed)
			}
			for _, want := range tt.wantStdout {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout.String())
				}
			}
			for _, notWant := range tt.notWantStdout {
				if strings.Contains(stdout.String(), notWant) {
					t.Errorf("stdout has %q:\n%s", notWant, stdout.String())
				}
			}
			for _, want := range tt.wantStderr {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr missing %q:\n%s", want, stderr.String())
				}
			}
		})
	}
}
