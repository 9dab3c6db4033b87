// Package engine provides headless engines that print a complete HTML
// document to PDF. They back the markup-proxy renderer.
package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/render"
)

// Sentinel errors.
var (
	ErrUnknownEngine  = errors.New("unknown engine")
	ErrEngineClosed   = errors.New("engine closed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBinaryNotFound = errors.New("engine binary not found")
)

// Engine names accepted by ByName.
const (
	NameRod         = "rod"
	NameChromedp    = "chromedp"
	NameWkhtmltopdf = "wkhtmltopdf"

	DefaultName = NameRod
)

// DefaultTimeout applies when neither Options nor the caller's context
// carries a deadline.
const DefaultTimeout = 30 * time.Second

// Names lists the available engines, default first.
func Names() []string {
	return []string{NameRod, NameChromedp, NameWkhtmltopdf}
}

// Options configures an engine. Zero values pick sensible defaults.
type Options struct {
	Timeout time.Duration

	// BrowserBin is the Chrome/Chromium binary. Empty means ROD_BROWSER_BIN,
	// then auto-detection.
	BrowserBin string

	// RemoteURL is the DevTools endpoint of an already running browser
	// (chromedp only).
	RemoteURL string

	// WkhtmltopdfBin is the wkhtmltopdf binary; empty searches PATH.
	WkhtmltopdfBin string

	// NoSandbox disables the Chrome sandbox. It is forced on in CI and
	// when ROD_BROWSER_BIN is set (containers).
	NoSandbox bool

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BrowserBin == "" {
		o.BrowserBin = os.Getenv("ROD_BROWSER_BIN")
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		o.NoSandbox = true
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// ByName creates the named engine. The empty name selects DefaultName.
func ByName(name string, opts Options) (render.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameRod:
		return NewRod(opts), nil
	case NameChromedp:
		return NewChromedp(opts), nil
	case NameWkhtmltopdf:
		return NewWkhtmltopdf(opts)
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownEngine, name, strings.Join(Names(), ", "))
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
