package resume2pdf

import (
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/engine"
	"github.com/alnah/go-resume2pdf/internal/estimate"
	"github.com/alnah/go-resume2pdf/internal/fonts"
	"github.com/alnah/go-resume2pdf/internal/render"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout     time.Duration
	page        style.Page
	pageName    string
	calibration estimate.Calibration
	fontDir     string
	engineName  string
	engineOpts  engine.Options
}

// defaultTimeout bounds each engine call.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the engine timeout for the HTML backend.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("resume2pdf: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFontProvider replaces the font lookup.
func WithFontProvider(p fonts.Provider) Option {
	return func(c *Converter) {
		c.fonts = p
	}
}

// WithFontDir searches dir for preferred fonts before the system locations.
// Ignored when WithFontProvider is also given.
func WithFontDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.fontDir = dir
	}
}

// WithEngine sets the HTML backend's print engine. The converter takes
// ownership and closes it in Close.
func WithEngine(e render.Engine) Option {
	return func(c *Converter) {
		c.engine = e
	}
}

// WithEngineName selects the print engine by name (rod, chromedp,
// wkhtmltopdf). The engine is created on the first HTML render.
func WithEngineName(name string) Option {
	return func(c *Converter) {
		c.cfg.engineName = name
	}
}

// WithEngineOptions passes browser and binary settings to the engine
// created by name.
func WithEngineOptions(opts engine.Options) Option {
	return func(c *Converter) {
		c.cfg.engineOpts = opts
	}
}

// WithPage sets the paper geometry.
func WithPage(p style.Page) Option {
	return func(c *Converter) {
		c.cfg.page = p
		c.cfg.pageName = ""
	}
}

// WithPageSize selects the paper by name (a4, letter, legal). An unknown
// name makes NewConverter fail with ErrInvalidPageSize.
func WithPageSize(name string) Option {
	return func(c *Converter) {
		c.cfg.pageName = name
	}
}

// WithCalibration tunes the single-page estimator.
func WithCalibration(cal estimate.Calibration) Option {
	return func(c *Converter) {
		c.cfg.calibration = cal
	}
}
