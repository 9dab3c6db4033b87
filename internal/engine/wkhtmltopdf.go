package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/process"
	"github.com/alnah/go-resume2pdf/internal/render"
)

// defaultWkhtmltopdfBin is looked up in PATH.
const defaultWkhtmltopdfBin = "wkhtmltopdf"

// mmPerInch converts print option inches to wkhtmltopdf millimetres.
const mmPerInch = 25.4

// Wkhtmltopdf prints by running the wkhtmltopdf binary once per document.
// It holds no process between calls.
type Wkhtmltopdf struct {
	bin  string
	opts Options
}

var _ render.Engine = (*Wkhtmltopdf)(nil)

// NewWkhtmltopdf resolves the binary and returns an engine. A missing binary
// is reported immediately as ErrBinaryNotFound.
func NewWkhtmltopdf(opts Options) (*Wkhtmltopdf, error) {
	opts = opts.withDefaults()
	bin := opts.WkhtmltopdfBin
	if bin == "" {
		bin = defaultWkhtmltopdfBin
	}
	path, err := resolveBinaryPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, bin, err)
	}
	return &Wkhtmltopdf{bin: path, opts: opts}, nil
}

// resolveBinaryPath checks an absolute path or searches PATH.
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return exec.LookPath(path)
}

// Print writes html and the output to temporary files and runs the binary.
// Cancelling ctx kills the whole process group.
func (w *Wkhtmltopdf) Print(ctx context.Context, html string, opts render.PrintOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.Timeout)
		defer cancel()
	}

	htmlPath, cleanupHTML, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, err
	}
	defer cleanupHTML()

	pdfPath, cleanupPDF, err := fileutil.ReserveTempFile("pdf")
	if err != nil {
		return nil, err
	}
	defer cleanupPDF()

	args := buildArgs(opts, htmlPath, pdfPath)
	w.opts.Logger.Debug("executing wkhtmltopdf",
		zap.String("binary", w.bin),
		zap.Strings("args", args))

	// #nosec G204 -- binary resolved at construction, arguments built here
	cmd := exec.CommandContext(ctx, w.bin, args...)
	process.Detach(cmd)
	cmd.Cancel = func() error {
		process.KillTree(cmd.Process.Pid)
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrPDFGeneration, err, strings.TrimSpace(stderr.String()))
	}

	pdf, err := os.ReadFile(pdfPath) // #nosec G304 -- path created by ReserveTempFile
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrPDFGeneration, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrPDFGeneration)
	}

	w.opts.Logger.Debug("wkhtmltopdf finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(pdf)))
	return pdf, nil
}

// buildArgs constructs the command line. Scripts and other local files are
// disabled; fonts travel inside the document as data URLs.
func buildArgs(o render.PrintOptions, in, out string) []string {
	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--print-media-type",
		"--disable-javascript",
		"--disable-local-file-access",
		"--allow", filepath.Dir(in),
		"--page-width", mm(o.PageWidthIn),
		"--page-height", mm(o.PageHeightIn),
		"--margin-top", mm(o.Margins.Top),
		"--margin-bottom", mm(o.Margins.Bottom),
		"--margin-left", mm(o.Margins.Left),
		"--margin-right", mm(o.Margins.Right),
	}
	if o.Title != "" {
		args = append(args, "--title", o.Title)
	}
	return append(args, in, out)
}

// mm formats inches as a wkhtmltopdf millimetre length.
func mm(in float64) string {
	return strconv.FormatFloat(in*mmPerInch, 'f', 2, 64) + "mm"
}

// Close is a no-op; no process outlives a Print call.
func (w *Wkhtmltopdf) Close() error {
	return nil
}
