package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/config"
	"github.com/alnah/go-resume2pdf/internal/engine"
)

// loadConfig builds the effective configuration.
// Priority: flags > environment > config file > defaults.
func loadConfig(common commonFlags, rf renderFlags, env *Environment) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if common.config != "" {
		var err error
		cfg, err = config.LoadConfig(common.config)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if env.Getenv != nil {
		cfg.ApplyEnv(env.Getenv)
	}
	mergeRenderFlags(rf, cfg)

	switch {
	case common.verbose:
		cfg.Log.Level = "debug"
	case common.quiet:
		cfg.Log.Level = "error"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeRenderFlags merges CLI flags into config. CLI values override config values.
func mergeRenderFlags(rf renderFlags, cfg *config.Config) {
	if rf.onePageSet {
		cfg.Render.SmartOnePage = rf.onePage
	}
	if rf.backend != "" {
		cfg.Render.Backend = normalizeName(rf.backend)
	}
	if rf.engine != "" {
		cfg.Render.Engine = normalizeName(rf.engine)
	}
	if rf.timeout != "" {
		cfg.Render.Timeout = strings.TrimSpace(rf.timeout)
	}
	if rf.pageSize != "" {
		cfg.Page.Size = normalizeName(rf.pageSize)
	}
	if rf.fontDir != "" {
		cfg.Fonts.Dir = rf.fontDir
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// converterOptions translates a validated config into converter options.
func converterOptions(cfg *config.Config, logger *zap.Logger) ([]resume2pdf.Option, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, fmt.Errorf("%w: render.timeout: %v", config.ErrInvalidConfig, err)
	}
	page, err := cfg.PageSize()
	if err != nil {
		return nil, err
	}

	opts := []resume2pdf.Option{
		resume2pdf.WithLogger(logger),
		resume2pdf.WithPage(page),
		resume2pdf.WithCalibration(cfg.EstimatorCalibration()),
		resume2pdf.WithFontDir(cfg.Fonts.Dir),
		resume2pdf.WithEngineName(cfg.Render.Engine),
		resume2pdf.WithEngineOptions(engine.Options{
			Timeout:        timeout,
			BrowserBin:     cfg.Render.BrowserBin,
			RemoteURL:      cfg.Render.RemoteURL,
			WkhtmltopdfBin: cfg.Render.WkhtmltopdfBin,
		}),
	}
	if timeout > 0 {
		opts = append(opts, resume2pdf.WithTimeout(timeout))
	}
	return opts, nil
}

// newLogger builds the process logger. In convert mode results are printed
// as text, so info-level log lines are only shown with --verbose.
func newLogger(cfg *config.Config, common commonFlags, batch bool) (*zap.Logger, error) {
	lc := cfg.Log
	if batch && lc.Level == "info" && !common.verbose {
		lc.Level = "warn"
	}
	return lc.NewLogger()
}
