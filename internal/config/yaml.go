package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion.
const MaxInputSize = 1 << 20

var (
	ErrEmptyInput    = errors.New("empty config data")
	ErrInputTooLarge = errors.New("config input exceeds maximum size")
)

// unmarshalStrict decodes data into v, rejecting unknown fields.
func unmarshalStrict(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}

// Marshal encodes the configuration as YAML, for `convert --print-config`
// and for seeding a new config file.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
