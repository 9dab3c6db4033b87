package fonts

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font/sfnt"
)

// Attempt tries to produce one face.
type Attempt func() (Face, error)

// Chain runs attempts in order and returns the first face that resolves.
// When all fail, the error wraps ErrFontUnavailable and every attempt's error.
func Chain(attempts ...Attempt) (Face, error) {
	errs := make([]error, 0, len(attempts))
	for _, a := range attempts {
		face, err := a()
		if err == nil {
			return face, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return Face{}, fmt.Errorf("%w: no candidates", ErrFontUnavailable)
	}
	return Face{}, fmt.Errorf("%w: %w", ErrFontUnavailable, errors.Join(errs...))
}

// FileAttempt reads and validates a TrueType family from disk. The bold path
// is optional; a missing or invalid bold file falls back to regular.
func FileAttempt(family, regularPath, boldPath string) Attempt {
	return func() (Face, error) {
		regular, err := os.ReadFile(regularPath) // #nosec G304 -- paths come from configuration
		if err != nil {
			return Face{}, fmt.Errorf("reading %s: %w", regularPath, err)
		}
		var bold []byte
		if boldPath != "" {
			if b, err := os.ReadFile(boldPath); err == nil { // #nosec G304 -- paths come from configuration
				bold = b
			}
		}
		return BytesAttempt(family, regular, bold)()
	}
}

// BytesAttempt validates in-memory font data.
func BytesAttempt(family string, regular, bold []byte) Attempt {
	return func() (Face, error) {
		name, err := Validate(regular)
		if err != nil {
			return Face{}, err
		}
		if len(bold) > 0 {
			if _, err := Validate(bold); err != nil {
				bold = nil
			}
		}
		if family == "" {
			family = name
		}
		return Face{Family: family, Regular: regular, Bold: bold}, nil
	}
}

// Validate parses data as a single TrueType font and returns its family
// name. CFF-flavoured OpenType and collections are rejected since the PDF
// writer embeds glyf outlines only.
func Validate(data []byte) (string, error) {
	if len(data) < 4 {
		return "", fmt.Errorf("%w: %d bytes", ErrUnsupportedFont, len(data))
	}
	switch {
	case bytes.HasPrefix(data, []byte("OTTO")):
		return "", fmt.Errorf("%w: CFF outlines", ErrUnsupportedFont)
	case bytes.HasPrefix(data, []byte("ttcf")):
		return "", fmt.Errorf("%w: font collection", ErrUnsupportedFont)
	}

	f, err := sfnt.Parse(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFont, err)
	}
	name, _ := f.Name(nil, sfnt.NameIDFamily)
	return name, nil
}
