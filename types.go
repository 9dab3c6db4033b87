package resume2pdf

import (
	"fmt"
	"strings"

	"github.com/alnah/go-resume2pdf/internal/document"
	"github.com/alnah/go-resume2pdf/internal/estimate"
	"github.com/alnah/go-resume2pdf/internal/planner"
	"github.com/alnah/go-resume2pdf/internal/render"
)

// Backend selects how the PDF is produced.
type Backend string

const (
	// BackendNative lays the document out with a pure Go PDF writer.
	BackendNative Backend = render.BackendNative

	// BackendHTML serializes styled HTML and prints it with a headless engine.
	BackendHTML Backend = render.BackendHTML
)

// DefaultBackend is used when Input.Backend is empty.
const DefaultBackend = BackendNative

// ParseBackend converts a user-supplied name. The empty string selects
// DefaultBackend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return DefaultBackend, nil
	case BackendNative, BackendHTML:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q (available: %s, %s)", ErrUnknownBackend, s, BackendNative, BackendHTML)
	}
}

// Input is one résumé to convert.
type Input struct {
	// Markdown is the résumé source: a level-1 heading with the name,
	// contact lines, then level-2 sections.
	Markdown string

	// SmartOnePage shrinks styles so the content fits on one page.
	SmartOnePage bool

	// Backend selects the renderer; empty means DefaultBackend.
	Backend Backend

	// HTMLOnly returns the serialized HTML without printing a PDF. It
	// always goes through the HTML serializer, whatever Backend says.
	HTMLOnly bool
}

// Warning is a non-fatal condition reported with a successful result.
type Warning = render.Warning

// WarningKind classifies a Warning.
type WarningKind = render.WarningKind

// Warning kinds.
const (
	WarnParseDegraded   = render.WarnParseDegraded
	WarnFontUnavailable = render.WarnFontUnavailable
	WarnContentOverflow = render.WarnContentOverflow
	WarnPageSpill       = render.WarnPageSpill
)

// Result is the outcome of a successful conversion.
type Result struct {
	// RenderID identifies the call in logs and HTTP headers.
	RenderID string

	Backend Backend

	// PDF is empty when HTMLOnly was requested.
	PDF []byte

	// HTML is set by the HTML backend and by HTMLOnly requests.
	HTML []byte

	Document document.Document
	Estimate estimate.Breakdown
	Plan     planner.Plan

	// Pages is zero when the backend cannot tell.
	Pages int

	Warnings []Warning

	// ContentOverflow is set in single-page mode when the plan saturated at
	// the ratio floor and the output, or the prediction when the page count
	// is unknown, still exceeds one page.
	ContentOverflow bool
}

// HasWarning reports whether the result carries a warning of kind.
func (r *Result) HasWarning(kind WarningKind) bool {
	return render.HasWarning(r.Warnings, kind)
}
