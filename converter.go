package resume2pdf

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/document"
	"github.com/alnah/go-resume2pdf/internal/engine"
	"github.com/alnah/go-resume2pdf/internal/estimate"
	"github.com/alnah/go-resume2pdf/internal/fonts"
	"github.com/alnah/go-resume2pdf/internal/parser"
	"github.com/alnah/go-resume2pdf/internal/planner"
	"github.com/alnah/go-resume2pdf/internal/render"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// Compile-time interface implementation checks.
var (
	_ render.Renderer = (*render.Native)(nil)
	_ render.Renderer = (*render.Proxy)(nil)
)

// Converter orchestrates parse, estimate, plan, style and render.
// Create with NewConverter, use Convert for conversion, and Close when done.
// A Converter is safe for concurrent use; HTML renders share one engine and
// are serialized by it. Use ConverterPool for parallel browser work.
type Converter struct {
	cfg    converterConfig
	logger *zap.Logger
	fonts  fonts.Provider
	engine render.Engine

	native  *render.Native
	preview *render.Proxy

	mu     sync.Mutex
	proxy  *render.Proxy
	closed bool
}

// NewConverter creates a Converter. Fails on an unknown page size or engine
// name; the engine itself starts on the first HTML render.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:     defaultTimeout,
			page:        style.DefaultPage,
			calibration: estimate.DefaultCalibration(),
			engineName:  engine.DefaultName,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.pageName != "" {
		page, err := style.PageByName(c.cfg.pageName)
		if err != nil {
			return nil, err
		}
		c.cfg.page = page
	}

	name := strings.ToLower(strings.TrimSpace(c.cfg.engineName))
	if c.engine == nil && name != "" && !slices.Contains(engine.Names(), name) {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownEngine, c.cfg.engineName, strings.Join(engine.Names(), ", "))
	}

	if c.fonts == nil {
		c.fonts = fonts.Shared(c.cfg.fontDir, c.logger)
	}
	c.native = render.NewNative(c.fonts, c.logger)
	c.preview = render.NewProxy(nil, c.proxyOptions())

	return c, nil
}

func (c *Converter) proxyOptions() render.ProxyOptions {
	return render.ProxyOptions{Timeout: c.cfg.timeout, Fonts: c.fonts, Logger: c.logger}
}

// Convert runs the full pipeline. The context bounds parsing and rendering.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	backend, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	if input.HTMLOnly {
		backend = BackendHTML
	}
	if c.isClosed() {
		return nil, ErrEngineClosed
	}

	renderID := uuid.NewString()
	logger := c.logger.With(zap.String("render_id", renderID), zap.String("backend", string(backend)))
	start := time.Now()

	a, err := c.analyze(ctx, input.Markdown, input.SmartOnePage, logger)
	if err != nil {
		return nil, err
	}
	warnings, plan := a.Warnings, a.Plan

	renderer, err := c.renderer(backend, input.HTMLOnly)
	if err != nil {
		logger.Warn("backend unavailable", zap.Error(err))
		return nil, err
	}

	res, err := renderer.Render(ctx, render.Request{
		Document:     a.Document,
		Styles:       a.sheet,
		Page:         c.cfg.page,
		SmartOnePage: input.SmartOnePage,
		Saturated:    plan.Saturated,
		HTMLOnly:     input.HTMLOnly,
	})
	if err != nil {
		logger.Warn("render failed", zap.Error(err))
		return nil, err
	}

	warnings = append(warnings, res.Warnings...)
	// Without a page count, fall back to the planner's prediction.
	if input.SmartOnePage && res.Pages == 0 && plan.Saturated && !render.HasWarning(warnings, WarnContentOverflow) {
		warnings = append(warnings, Warning{
			Kind:    WarnContentOverflow,
			Message: "content is predicted to exceed one page at the strongest compression",
		})
	}

	result = &Result{
		RenderID:        renderID,
		Backend:         backend,
		PDF:             res.PDF,
		HTML:            res.HTML,
		Document:        a.Document,
		Estimate:        a.Estimate,
		Plan:            plan,
		Pages:           res.Pages,
		Warnings:        warnings,
		ContentOverflow: render.HasWarning(warnings, WarnContentOverflow),
	}

	logger.Info("render complete",
		zap.Float64("ratio", plan.Ratio),
		zap.Stringer("tier", plan.Tier),
		zap.Int("pages", res.Pages),
		zap.Int("bytes", len(res.PDF)+len(res.HTML)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Analysis is the parse and layout outcome of an input, without rendering.
type Analysis struct {
	Document document.Document  `json:"document"`
	Estimate estimate.Breakdown `json:"estimate"`
	Plan     planner.Plan       `json:"plan"`
	Warnings []Warning          `json:"warnings"`

	sheet style.Stylesheet
}

// Analyze parses the Markdown and plans the layout. It never renders, so it
// needs no engine and reports only parse warnings.
func (c *Converter) Analyze(ctx context.Context, input Input) (*Analysis, error) {
	if strings.TrimSpace(input.Markdown) == "" {
		return nil, ErrEmptyMarkdown
	}
	a, err := c.analyze(ctx, input.Markdown, input.SmartOnePage, c.logger)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Converter) analyze(ctx context.Context, markdown string, smartOnePage bool, logger *zap.Logger) (Analysis, error) {
	doc := parser.Parse(markdown)
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	stats := doc.Stats()
	logger.Debug("document parsed",
		zap.Int("sections", stats.Sections),
		zap.Int("items", stats.Items))

	a := Analysis{Document: doc, Warnings: []Warning{}}
	if doc.Degraded() {
		a.Warnings = append(a.Warnings, Warning{Kind: WarnParseDegraded, Message: degradedMessage(doc)})
	}

	a.sheet, a.Estimate, a.Plan = c.layout(doc, smartOnePage)
	logger.Debug("layout planned",
		zap.Float64("estimate", a.Plan.Estimate),
		zap.Float64("available", a.Plan.Available),
		zap.Float64("ratio", a.Plan.Ratio),
		zap.Stringer("tier", a.Plan.Tier),
		zap.Bool("saturated", a.Plan.Saturated))
	return a, nil
}

// Preview returns the styled HTML the HTML backend would print.
func (c *Converter) Preview(ctx context.Context, input Input) (*Result, error) {
	input.HTMLOnly = true
	return c.Convert(ctx, input)
}

// Close releases the print engine, if one was started or injected.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.engine != nil {
		return c.engine.Close()
	}
	return nil
}

func (c *Converter) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// layout estimates against the base stylesheet and, in single-page mode,
// compresses it.
func (c *Converter) layout(doc document.Document, smartOnePage bool) (style.Stylesheet, estimate.Breakdown, planner.Plan) {
	base := style.Base()
	width := c.cfg.page.ContentWidth(base.Margins)
	available := c.cfg.page.ContentHeight(base.Margins)

	breakdown := estimate.EstimateWith(doc, base, width, c.cfg.calibration)
	if !smartOnePage {
		return base, breakdown, planner.NoCompression(breakdown.Total, available)
	}

	plan := planner.Compute(breakdown.Total, available)
	return style.Generate(plan.Ratio, plan.Tier), breakdown, plan
}

func (c *Converter) renderer(backend Backend, htmlOnly bool) (render.Renderer, error) {
	switch {
	case htmlOnly:
		return c.preview, nil
	case backend == BackendNative:
		return c.native, nil
	default:
		return c.htmlRenderer()
	}
}

// htmlRenderer creates the engine on first use.
func (c *Converter) htmlRenderer() (*render.Proxy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrEngineClosed
	}
	if c.proxy != nil {
		return c.proxy, nil
	}

	if c.engine == nil {
		opts := c.cfg.engineOpts
		if opts.Timeout <= 0 {
			opts.Timeout = c.cfg.timeout
		}
		if opts.Logger == nil {
			opts.Logger = c.logger
		}
		e, err := engine.ByName(c.cfg.engineName, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		c.engine = e
	}

	c.proxy = render.NewProxy(c.engine, c.proxyOptions())
	return c.proxy, nil
}

// validateInput checks the caller-built Input and resolves the backend.
func validateInput(input Input) (Backend, error) {
	if strings.TrimSpace(input.Markdown) == "" {
		return "", ErrEmptyMarkdown
	}
	return ParseBackend(string(input.Backend))
}

func degradedMessage(doc document.Document) string {
	var missing []string
	if strings.TrimSpace(doc.PersonalInfo.Name) == "" {
		missing = append(missing, "no level-1 name heading")
	}
	if len(doc.Sections) == 0 {
		missing = append(missing, "no level-2 sections")
	}
	return "partial document: " + strings.Join(missing, ", ")
}
