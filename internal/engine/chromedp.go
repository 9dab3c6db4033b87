package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/render"
)

// Chromedp prints through the Chrome DevTools Protocol. It launches a local
// browser, or attaches to RemoteURL when set. Each Print opens its own tab
// and injects the document directly, so no temporary file is written.
type Chromedp struct {
	opts Options

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closed        bool
}

var _ render.Engine = (*Chromedp)(nil)

// NewChromedp creates a chromedp engine. The browser starts on first Print.
func NewChromedp(opts Options) *Chromedp {
	return &Chromedp{opts: opts.withDefaults()}
}

// allocatorOptions returns the exec allocator flags for a server
// environment.
func (c *Chromedp) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if c.opts.BrowserBin != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.BrowserBin))
	}
	if c.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// ensureBrowser starts or attaches to the browser. Caller holds mu.
func (c *Chromedp) ensureBrowser() error {
	if c.browserCtx != nil {
		return nil
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if c.opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), c.opts.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), c.allocatorOptions()...)
	}

	logger := c.opts.Logger.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Debugf))

	// An empty Run starts the browser so launch errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	c.allocCancel, c.browserCtx, c.browserCancel = allocCancel, browserCtx, browserCancel
	c.opts.Logger.Debug("browser ready", zap.String("engine", NameChromedp), zap.Bool("remote", c.opts.RemoteURL != ""))
	return nil
}

// Print renders html in a fresh tab. The tab is closed when ctx ends.
func (c *Chromedp) Print(ctx context.Context, html string, opts render.PrintOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrEngineClosed
	}
	if err := c.ensureBrowser(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	runCtx := tabCtx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(tabCtx, c.opts.Timeout)
		defer cancel()
	}

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrPageLoad, err)
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(opts.PageWidthIn).
				WithPaperHeight(opts.PageHeightIn).
				WithMarginTop(opts.Margins.Top).
				WithMarginBottom(opts.Margins.Bottom).
				WithMarginLeft(opts.Margins.Left).
				WithMarginRight(opts.Margins.Right).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// Close shuts the browser down, or detaches from a remote one.
func (c *Chromedp) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.browserCancel != nil {
		c.browserCancel()
		c.allocCancel()
		c.browserCtx, c.browserCancel, c.allocCancel = nil, nil, nil
	}
	return nil
}
