// Package estimate predicts the rendered height of a document from a
// stylesheet and a content width, without laying anything out.
//
// The estimate is deliberately coarse: line counts come from an average
// character width (Calibration), not from font metrics. It only has to be
// stable and monotone in content length for the planner to work.
package estimate

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-resume2pdf/internal/document"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// Calibration holds the empirical constants of the line estimate.
type Calibration struct {
	// CharWidthFactor is the average glyph width as a fraction of the font size.
	CharWidthFactor float64 `yaml:"charWidthFactor" json:"char_width_factor"`

	// WrapFontSize is the font size used to count wrapped lines. Zero means
	// each item's own role font size.
	WrapFontSize float64 `yaml:"wrapFontSize" json:"wrap_font_size"`
}

// Default calibration values, tuned against a CJK sans-serif family.
const (
	DefaultCharWidthFactor = 0.6
	DefaultWrapFontSize    = 10
)

// maxCharsPerLine caps the line width for absurdly wide inputs.
const maxCharsPerLine = 1 << 20

// DefaultCalibration returns the default calibration.
func DefaultCalibration() Calibration {
	return Calibration{
		CharWidthFactor: DefaultCharWidthFactor,
		WrapFontSize:    DefaultWrapFontSize,
	}
}

// normalized replaces unusable values: a non-positive width factor becomes
// the default, a negative wrap size becomes zero.
func (c Calibration) normalized() Calibration {
	if !(c.CharWidthFactor > 0) || math.IsInf(c.CharWidthFactor, 0) {
		c.CharWidthFactor = DefaultCharWidthFactor
	}
	if !(c.WrapFontSize >= 0) || math.IsInf(c.WrapFontSize, 0) {
		c.WrapFontSize = 0
	}
	return c
}

// Breakdown is a detailed estimate. Heights are in points.
type Breakdown struct {
	Header   float64 `json:"header"`
	Content  float64 `json:"content"`
	Total    float64 `json:"total"`
	Sections int     `json:"sections"`
	Items    int     `json:"items"`
}

// Estimate returns the predicted total height with the default calibration.
func Estimate(doc document.Document, sheet style.Stylesheet, width float64) float64 {
	return EstimateWith(doc, sheet, width, DefaultCalibration()).Total
}

// EstimateWith returns the header/content breakdown under cal. It is pure
// and never fails.
func EstimateWith(doc document.Document, sheet style.Stylesheet, width float64, cal Calibration) Breakdown {
	e := estimator{sheet: sheet, width: width, cal: cal.normalized()}

	b := Breakdown{
		Header:   e.header(doc.PersonalInfo),
		Sections: len(doc.Sections),
	}
	for _, s := range doc.Sections {
		b.Content += e.section(s)
		b.Items += len(s.Items)
	}
	b.Total = b.Header + b.Content
	return b
}

type estimator struct {
	sheet style.Stylesheet
	width float64
	cal   Calibration
}

func (e estimator) header(p document.PersonalInfo) float64 {
	var h float64
	if strings.TrimSpace(p.Name) != "" {
		s := e.sheet.Spec(style.RoleNameTitle)
		h += s.Leading + s.SpaceAfter
	}
	if p.HasContact() {
		s := e.sheet.Spec(style.RoleContactInfo)
		h += s.Leading + s.SpaceAfter
	}
	return h + e.sheet.Gaps.Header
}

func (e estimator) section(s document.Section) float64 {
	var h float64
	if strings.TrimSpace(s.Title) != "" {
		t := e.sheet.Spec(style.RoleSectionTitle)
		h += t.SpaceBefore + t.Leading + t.SpaceAfter
		h += 2 * e.sheet.Gaps.Rule
	}
	for _, it := range s.Items {
		h += e.item(s, it)
	}
	return h + e.sheet.Gaps.Section
}

// item returns the height of one item. Paragraphs never estimate below body
// text, so reclassification caused by editing content cannot shrink the total.
func (e estimator) item(s document.Section, it document.Item) float64 {
	if strings.TrimSpace(it.Content) == "" {
		return 0
	}
	role := style.ItemRole(s, it)
	h := e.blockHeight(it.Content, role)
	if it.Kind == document.Paragraph && role != style.RoleBodyText {
		h = math.Max(h, e.blockHeight(it.Content, style.RoleBodyText))
	}
	return h
}

func (e estimator) blockHeight(content string, role style.Role) float64 {
	spec := e.sheet.Spec(role)
	fontSize := e.cal.WrapFontSize
	if fontSize == 0 {
		fontSize = spec.FontSize
	}
	lines := Lines(content, e.width-spec.Indent, fontSize, e.cal.CharWidthFactor)
	return float64(lines)*spec.Leading + spec.SpaceBefore + spec.SpaceAfter
}

// Lines estimates how many lines text wraps to in width at fontSize. Each
// "\n"-separated line takes at least one line; the result is at least 1.
func Lines(text string, width, fontSize, charWidthFactor float64) int {
	perLine := CharsPerLine(width, fontSize, charWidthFactor)
	total := 0
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		total += max(1, (n+perLine-1)/perLine)
	}
	return max(1, total)
}

// CharsPerLine is floor(width / (fontSize * charWidthFactor)), at least 1.
func CharsPerLine(width, fontSize, charWidthFactor float64) int {
	charWidth := fontSize * charWidthFactor
	if !(charWidth > 0) || !(width > 0) {
		return 1
	}
	n := math.Floor(width / charWidth)
	if n >= maxCharsPerLine {
		return maxCharsPerLine
	}
	return max(1, int(n))
}
