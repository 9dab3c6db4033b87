// Package fonts resolves the font faces used by the renderers.
//
// Resolution is an ordered list of attempts that stops at the first success.
// The outcome is cached process-wide and never changes afterwards, so
// concurrent renders read it without locking.
package fonts

import (
	"errors"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/alnah/go-resume2pdf/internal/style"
)

// Sentinel errors.
var (
	ErrFontUnavailable = errors.New("font unavailable")
	ErrUnsupportedFont = errors.New("unsupported font format")
)

// Face is a resolved font family. Regular and Bold hold TrueType bytes; a
// built-in face has none and maps to a PDF core font.
type Face struct {
	Family  string
	Regular []byte
	Bold    []byte
	BuiltIn bool
}

// BoldBytes returns the bold variant, or the regular one when the family
// ships no bold.
func (f Face) BoldBytes() []byte {
	if len(f.Bold) > 0 {
		return f.Bold
	}
	return f.Regular
}

// BuiltIn is the guaranteed last resort: the Helvetica core font, limited to
// the cp1252 character set.
func BuiltIn() Face {
	return Face{Family: "Helvetica", BuiltIn: true}
}

// GoFace is the Go font family embedded in golang.org/x/image. It covers
// Latin, Greek and Cyrillic but not CJK.
func GoFace() Face {
	return Face{Family: "Go", Regular: goregular.TTF, Bold: gobold.TTF}
}

// Provider resolves the face for a role. The boolean is false when the
// preferred fonts were unavailable and a substitute is returned.
type Provider interface {
	Resolve(role style.Role) (Face, bool)
}

// NoFonts always substitutes the built-in face.
type NoFonts struct{}

// Resolve implements Provider.
func (NoFonts) Resolve(style.Role) (Face, bool) { return BuiltIn(), false }

// Static always returns the same face as resolved.
type Static Face

// Resolve implements Provider.
func (s Static) Resolve(style.Role) (Face, bool) { return Face(s), true }

// Compile-time interface checks.
var (
	_ Provider = NoFonts{}
	_ Provider = Static{}
	_ Provider = (*Cache)(nil)
)
