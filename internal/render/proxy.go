package render

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/fonts"
	"github.com/alnah/go-resume2pdf/internal/markup"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// BackendHTML is the name of the markup-proxy backend.
const BackendHTML = "html"

// DefaultEngineTimeout bounds one engine call.
const DefaultEngineTimeout = 30 * time.Second

// Engine prints a complete HTML document to PDF.
type Engine interface {
	Print(ctx context.Context, html string, opts PrintOptions) ([]byte, error)
	Close() error
}

// PrintMargins are page margins in inches.
type PrintMargins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// PrintOptions configures one engine call. Lengths are in inches.
type PrintOptions struct {
	PageWidthIn  float64
	PageHeightIn float64
	Margins      PrintMargins
	Title        string
}

// printOptionsFor converts stylesheet margins and page size to inches.
func printOptionsFor(sheet style.Stylesheet, page style.Page, title string) PrintOptions {
	in := func(v float64) float64 { return v / style.PointsPerInch }
	m := sheet.Margins
	return PrintOptions{
		PageWidthIn:  page.WidthInches(),
		PageHeightIn: page.HeightInches(),
		Margins:      PrintMargins{Top: in(m.Top), Bottom: in(m.Bottom), Left: in(m.Left), Right: in(m.Right)},
		Title:        title,
	}
}

// ProxyOptions configures a Proxy.
type ProxyOptions struct {
	Timeout time.Duration  // zero means DefaultEngineTimeout
	Fonts   fonts.Provider // nil means engine fonts only
	Logger  *zap.Logger
}

// Proxy serializes the document to styled HTML and delegates pagination to
// a headless engine.
type Proxy struct {
	engine  Engine
	timeout time.Duration
	fonts   fonts.Provider
	logger  *zap.Logger
}

var _ Renderer = (*Proxy)(nil)

// NewProxy creates a markup-proxy renderer over engine. A nil engine still
// serves HTMLOnly requests.
func NewProxy(engine Engine, opts ProxyOptions) *Proxy {
	p := &Proxy{engine: engine, timeout: opts.Timeout, fonts: opts.Fonts, logger: opts.Logger}
	if p.timeout <= 0 {
		p.timeout = DefaultEngineTimeout
	}
	if p.fonts == nil {
		p.fonts = fonts.NoFonts{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Name implements Renderer.
func (p *Proxy) Name() string { return BackendHTML }

// Render implements Renderer. Any engine failure, including the timeout,
// is reported as ErrBackendUnavailable.
func (p *Proxy) Render(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var warnings []Warning
	face, ok := p.fonts.Resolve(style.RoleBodyText)
	if !ok {
		p.logger.Warn("preferred font unavailable, substituting",
			zap.String("family", face.Family), zap.Error(providerErr(p.fonts)))
		warnings = append(warnings, fontWarning(face.Family, providerErr(p.fonts)))
	}

	html, err := SerializeHTML(ctx, req.Document, req.Styles, req.Page, face)
	if err != nil {
		return nil, err
	}
	if req.HTMLOnly {
		return &Result{HTML: html, Warnings: warnings}, nil
	}
	if p.engine == nil {
		return nil, fmt.Errorf("%w: no engine configured", ErrBackendUnavailable)
	}

	printCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	title := markup.Plain(req.Document.PersonalInfo.Name)
	start := time.Now()
	pdf, err := p.engine.Print(printCtx, string(html), printOptionsFor(req.Styles, req.Page, title))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warn("engine print failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: engine returned no output", ErrBackendUnavailable)
	}

	pages := countPages(pdf)
	warnings = append(warnings, pageWarnings(req, pages)...)

	p.logger.Debug("engine print complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("pages", pages),
		zap.Int("bytes", len(pdf)))

	return &Result{PDF: pdf, HTML: html, Pages: pages, Warnings: warnings}, nil
}

// Close releases the engine.
func (p *Proxy) Close() error {
	if p.engine == nil {
		return nil
	}
	return p.engine.Close()
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

// countPages counts page objects in an uncompressed object table. It returns
// 0 when none are visible, which callers treat as unknown.
func countPages(pdf []byte) int {
	return len(pageObject.FindAllIndex(pdf, -1))
}
