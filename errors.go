package resume2pdf

import (
	"errors"

	"github.com/alnah/go-resume2pdf/internal/engine"
	"github.com/alnah/go-resume2pdf/internal/fonts"
	"github.com/alnah/go-resume2pdf/internal/render"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown  = errors.New("markdown content cannot be empty")
	ErrUnknownBackend = errors.New("unknown render backend")
	ErrPoolClosed     = errors.New("converter pool closed")

	// ErrBackendUnavailable means no PDF could be produced for the call.
	// The converter stays usable; callers may retry with another backend.
	ErrBackendUnavailable = render.ErrBackendUnavailable

	// ErrRender indicates the native writer failed on valid input.
	ErrRender = render.ErrRender

	// Configuration errors reported by NewConverter.
	ErrInvalidPageSize = style.ErrInvalidPageSize
	ErrUnknownEngine   = engine.ErrUnknownEngine

	// ErrEngineClosed is returned by Convert after Close.
	ErrEngineClosed = engine.ErrEngineClosed

	// ErrFontUnavailable is wrapped by font providers; the converter turns
	// it into a warning.
	ErrFontUnavailable = fonts.ErrFontUnavailable
)
