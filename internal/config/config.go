// Package config loads and validates the YAML configuration shared by the
// CLI and the HTTP server.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/estimate"
	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
)

// appDir is the directory under the user config dir searched for configs.
const appDir = "go-resume2pdf"

// Environment variables that override file values.
const (
	EnvBackend  = "RESUME2PDF_BACKEND"
	EnvEngine   = "RESUME2PDF_ENGINE"
	EnvFontDir  = "RESUME2PDF_FONT_DIR"
	EnvLogLevel = "RESUME2PDF_LOG_LEVEL"
)

// Config holds all runtime configuration.
type Config struct {
	Page        PageConfig        `yaml:"page"`
	Render      RenderConfig      `yaml:"render"`
	Fonts       FontsConfig       `yaml:"fonts"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// PageConfig selects the paper size.
type PageConfig struct {
	Size string `yaml:"size" validate:"omitempty,oneof=a4 letter legal"`
}

// RenderConfig selects the backend and engine.
type RenderConfig struct {
	Backend      string `yaml:"backend" validate:"omitempty,oneof=native html"`
	Engine       string `yaml:"engine" validate:"omitempty,oneof=rod chromedp wkhtmltopdf"`
	Timeout      string `yaml:"timeout"` // Go duration, e.g. "30s"
	SmartOnePage bool   `yaml:"smartOnePage"`
	Workers      int    `yaml:"workers" validate:"gte=0,lte=64"` // 0 = auto

	BrowserBin     string `yaml:"browserBin" validate:"max=4096"`
	RemoteURL      string `yaml:"remoteURL" validate:"omitempty,url"`
	WkhtmltopdfBin string `yaml:"wkhtmltopdfBin" validate:"max=4096"`
}

// FontsConfig locates preferred font files.
type FontsConfig struct {
	Dir string `yaml:"dir" validate:"max=4096"`
}

// CalibrationConfig tunes the content estimator.
type CalibrationConfig struct {
	CharWidthFactor float64 `yaml:"charWidthFactor" validate:"gte=0,lte=2"`
	WrapFontSize    float64 `yaml:"wrapFontSize" validate:"gte=0,lte=72"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes" validate:"gte=0"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Page:   PageConfig{Size: style.PageSizeA4},
		Render: RenderConfig{Backend: "native", Engine: "rod", Timeout: "30s"},
		Calibration: CalibrationConfig{
			CharWidthFactor: estimate.DefaultCharWidthFactor,
			WrapFontSize:    estimate.DefaultWrapFontSize,
		},
		Server: ServerConfig{Addr: ":8080", MaxBodyBytes: 1 << 20},
		Log:    LogConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their defaults.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults, normalizes and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvBackend); v != "" {
		c.Render.Backend = v
	}
	if v := getenv(EnvEngine); v != "" {
		c.Render.Engine = v
	}
	if v := getenv(EnvFontDir); v != "" {
		c.Fonts.Dir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	c.normalize()
}

func (c *Config) normalize() {
	c.Page.Size = strings.ToLower(strings.TrimSpace(c.Page.Size))
	c.Render.Backend = strings.ToLower(strings.TrimSpace(c.Render.Backend))
	c.Render.Engine = strings.ToLower(strings.TrimSpace(c.Render.Engine))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report YAML field names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field. Called automatically by LoadConfig, but
// available for callers that build a Config by hand.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			_, field, _ := strings.Cut(fe.Namespace(), ".")
			return fmt.Errorf("%w: %s: failed %q (value %v)", ErrInvalidConfig, field, tagDescription(fe), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Timeout(); err != nil {
		return fmt.Errorf("%w: render.timeout: %v", ErrInvalidConfig, err)
	}
	if c.Server.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			return fmt.Errorf("%w: server.addr: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func tagDescription(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Timeout parses render.timeout. Empty means zero (use the default).
func (c *Config) Timeout() (time.Duration, error) {
	if c.Render.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Render.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// PageSize resolves page.size.
func (c *Config) PageSize() (style.Page, error) {
	return style.PageByName(c.Page.Size)
}

// EstimatorCalibration converts the calibration section.
func (c *Config) EstimatorCalibration() estimate.Calibration {
	return estimate.Calibration{
		CharWidthFactor: c.Calibration.CharWidthFactor,
		WrapFontSize:    c.Calibration.WrapFontSize,
	}
}

// NewLogger builds a zap logger from the log section.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if l.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	if l.Level != "" {
		level, err := zap.ParseAtomicLevel(l.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
		}
		cfg.Level = level
	}
	return cfg.Build()
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-resume2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appDir, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
