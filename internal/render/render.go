// Package render turns a document and a stylesheet into PDF bytes.
//
// Two backends share one contract: Native lays text out directly with a pure
// Go PDF writer, Proxy serializes styled HTML and hands it to a headless
// engine. Both map items to roles with style.ItemRole and never emit raw
// Markdown decoration.
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-resume2pdf/internal/document"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// Sentinel errors.
var (
	// ErrBackendUnavailable means no output could be produced for this call.
	ErrBackendUnavailable = errors.New("render backend unavailable")

	// ErrRender indicates the PDF writer failed on otherwise valid input.
	ErrRender = errors.New("render failed")
)

// Renderer produces a PDF for one request.
type Renderer interface {
	Name() string
	Render(ctx context.Context, req Request) (*Result, error)
}

// Request is one render call. All fields are values owned by the caller.
type Request struct {
	Document     document.Document
	Styles       style.Stylesheet
	Page         style.Page
	SmartOnePage bool

	// Saturated is set when the planner clamped the ratio at its floor.
	// ContentOverflow is only reported for saturated plans.
	Saturated bool

	// HTMLOnly makes the proxy backend return its serialized HTML without
	// calling the engine. The native backend ignores it.
	HTMLOnly bool
}

// Result is a successful render. Warnings never invalidate the output.
type Result struct {
	PDF      []byte
	HTML     []byte
	Pages    int // 0 when the backend cannot tell
	Warnings []Warning
}

// WarningKind classifies a non-fatal condition.
type WarningKind string

const (
	WarnParseDegraded   WarningKind = "parse_degraded"
	WarnFontUnavailable WarningKind = "font_unavailable"
	WarnContentOverflow WarningKind = "content_overflow"

	// WarnPageSpill is advisory: content spans more than one page although
	// the plan was not saturated, so the estimate was short.
	WarnPageSpill WarningKind = "page_spill"
)

// Warning is a non-fatal condition reported alongside output.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// HasWarning reports whether ws contains kind.
func HasWarning(ws []Warning, kind WarningKind) bool {
	for _, w := range ws {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// pageWarnings reports a multi-page result of a one-page request. It
// returns nil when the output fits or smart mode is off.
func pageWarnings(req Request, pages int) []Warning {
	if !req.SmartOnePage || pages <= 1 {
		return nil
	}
	if req.Saturated {
		return []Warning{{
			Kind:    WarnContentOverflow,
			Message: fmt.Sprintf("content still spans %d pages at the strongest compression", pages),
		}}
	}
	return []Warning{{
		Kind:    WarnPageSpill,
		Message: fmt.Sprintf("content spans %d pages although the estimate fit one", pages),
	}}
}

func fontWarning(family string, cause error) Warning {
	msg := fmt.Sprintf("preferred fonts unavailable, substituted %s", family)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return Warning{Kind: WarnFontUnavailable, Message: msg}
}
