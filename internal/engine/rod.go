package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/process"
	"github.com/alnah/go-resume2pdf/internal/render"
)

// Rod prints with headless Chrome driven by go-rod. The browser is launched
// lazily on the first Print and reused until Close. Rod downloads Chromium
// when no browser is found.
type Rod struct {
	opts Options

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	closed   bool
}

var _ render.Engine = (*Rod)(nil)

// NewRod creates a rod engine. No process is started until the first Print.
func NewRod(opts Options) *Rod {
	return &Rod{opts: opts.withDefaults()}
}

// ensureBrowser lazily launches and connects to the browser. Caller holds mu.
func (r *Rod) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	if r.opts.BrowserBin != "" {
		l = l.Bin(r.opts.BrowserBin)
	}
	if r.opts.NoSandbox {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher, r.browser = l, browser
	r.opts.Logger.Debug("browser launched", zap.String("engine", NameRod), zap.Int("pid", l.PID()))
	return nil
}

// Print loads html from a temporary file and prints it. The document's CSS
// page size wins over opts when both are set.
func (r *Rod) Print(ctx context.Context, html string, opts render.PrintOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrEngineClosed
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	path, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// buildPDFOptions maps print options to Chrome's printToPDF parameters.
func buildPDFOptions(o render.PrintOptions) *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(o.PageWidthIn),
		PaperHeight:       floatPtr(o.PageHeightIn),
		MarginTop:         floatPtr(o.Margins.Top),
		MarginBottom:      floatPtr(o.Margins.Bottom),
		MarginLeft:        floatPtr(o.Margins.Left),
		MarginRight:       floatPtr(o.Margins.Right),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// Close releases the browser and kills its process tree. Further Print
// calls fail with ErrEngineClosed.
func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		process.KillTree(r.launcher.PID())
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
