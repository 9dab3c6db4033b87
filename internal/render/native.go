package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/document"
	"github.com/alnah/go-resume2pdf/internal/fonts"
	"github.com/alnah/go-resume2pdf/internal/markup"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// BackendNative is the name of the native backend.
const BackendNative = "native"

// utf8Family is the family name TrueType faces are registered under.
const utf8Family = "resume"

// contactSeparator joins contact fields on one line.
const contactSeparator = " • "

// ruleColor is the section rule colour.
var ruleColor = [3]int{0x34, 0x98, 0xdb}

// Native renders directly to PDF with gofpdf. It needs no external process
// and reports the real page count.
type Native struct {
	fonts  fonts.Provider
	logger *zap.Logger

	// plainStreams leaves content streams uncompressed so tests can read
	// the drawn text back.
	plainStreams bool
}

var _ Renderer = (*Native)(nil)

// NewNative creates a native renderer. A nil provider uses the built-in face;
// a nil logger disables logging.
func NewNative(provider fonts.Provider, logger *zap.Logger) *Native {
	if provider == nil {
		provider = fonts.NoFonts{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Native{fonts: provider, logger: logger}
}

// Name implements Renderer.
func (n *Native) Name() string { return BackendNative }

// Render implements Renderer. In SmartOnePage mode a multi-page result is
// reported as ContentOverflow for a saturated plan and as PageSpill otherwise.
func (n *Native) Render(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var warnings []Warning
	face, ok := n.fonts.Resolve(style.RoleBodyText)
	if !ok {
		n.logger.Warn("preferred font unavailable, substituting",
			zap.String("family", face.Family), zap.Error(providerErr(n.fonts)))
		warnings = append(warnings, fontWarning(face.Family, providerErr(n.fonts)))
	}

	w, err := newPDFWriter(req, face, !n.plainStreams)
	if err != nil && !face.BuiltIn {
		n.logger.Warn("font rejected by PDF writer, using built-in",
			zap.String("family", face.Family), zap.Error(err))
		warnings = append(warnings, fontWarning(fonts.BuiltIn().Family, err))
		w, err = newPDFWriter(req, fonts.BuiltIn(), !n.plainStreams)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	w.header(req.Document.PersonalInfo)
	for _, s := range req.Document.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.section(s)
	}

	pdf, pages, err := w.finish()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	warnings = append(warnings, pageWarnings(req, pages)...)

	n.logger.Debug("native render complete",
		zap.Int("pages", pages),
		zap.Int("bytes", len(pdf)),
		zap.String("font", w.face.Family))

	return &Result{PDF: pdf, Pages: pages, Warnings: warnings}, nil
}

// providerErr returns the resolution error of providers that keep one.
func providerErr(p fonts.Provider) error {
	if e, ok := p.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// pdfWriter lays one document out on a gofpdf instance.
type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	sheet  style.Stylesheet
	page   style.Page
	face   fonts.Face
	family string
	tr     func(string) string
}

func newPDFWriter(req Request, face fonts.Face, compress bool) (*pdfWriter, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: req.Page.Width, Ht: req.Page.Height},
	})
	pdf.SetCompression(compress)
	m := req.Styles.Margins
	pdf.SetMargins(m.Left, m.Top, m.Right)
	pdf.SetAutoPageBreak(true, m.Bottom)
	pdf.SetCellMargin(0)

	w := &pdfWriter{pdf: pdf, sheet: req.Styles, page: req.Page, face: face}
	if face.BuiltIn {
		w.family = face.Family
		w.tr = pdf.UnicodeTranslatorFromDescriptor("")
	} else {
		w.family = utf8Family
		w.tr = basicPlane
		pdf.AddUTF8FontFromBytes(utf8Family, "", face.Regular)
		pdf.AddUTF8FontFromBytes(utf8Family, "I", face.Regular)
		pdf.AddUTF8FontFromBytes(utf8Family, "B", face.BoldBytes())
		pdf.AddUTF8FontFromBytes(utf8Family, "BI", face.BoldBytes())
		// A face gofpdf could not parse is silently skipped; selecting it
		// surfaces the failure.
		pdf.SetFont(utf8Family, "", 10)
	}
	if err := pdf.Error(); err != nil {
		return nil, err
	}

	pdf.SetTitle(markup.Plain(req.Document.PersonalInfo.Name), true)
	pdf.SetCreator("go-resume2pdf", true)
	pdf.AddPage()
	return w, pdf.Error()
}

func (w *pdfWriter) header(p document.PersonalInfo) {
	if name := markup.Plain(p.Name); name != "" {
		w.centered(style.RoleNameTitle, name)
	}
	if fields := p.ContactFields(); len(fields) > 0 {
		plain := make([]string, 0, len(fields))
		for _, f := range fields {
			if s := markup.Plain(f); s != "" {
				plain = append(plain, s)
			}
		}
		w.centered(style.RoleContactInfo, strings.Join(plain, contactSeparator))
	}
	w.pdf.Ln(w.sheet.Gaps.Header)
}

func (w *pdfWriter) centered(role style.Role, text string) {
	spec := w.sheet.Spec(role)
	w.pdf.Ln(spec.SpaceBefore)
	w.setFont(spec, markup.Span{})
	w.pdf.MultiCell(0, spec.Leading, w.tr(text), "", alignCode(spec.Align), false)
	w.pdf.Ln(spec.SpaceAfter)
}

// section draws the rule, the upper-cased title, the items and the trailing
// section gap.
func (w *pdfWriter) section(s document.Section) {
	if title := markup.Plain(s.Title); title != "" {
		spec := w.sheet.Spec(style.RoleSectionTitle)
		gap := w.sheet.Gaps.Rule
		w.keepTogether(2*gap + spec.SpaceBefore + spec.Leading)

		w.pdf.Ln(gap)
		w.rule()
		w.pdf.Ln(gap)

		w.pdf.Ln(spec.SpaceBefore)
		w.setFont(spec, markup.Span{})
		w.pdf.MultiCell(0, spec.Leading, w.tr(strings.ToUpper(title)), "", alignCode(spec.Align), false)
		w.pdf.Ln(spec.SpaceAfter)
	}
	for _, it := range s.Items {
		w.item(s, it)
	}
	w.pdf.Ln(w.sheet.Gaps.Section)
}

func (w *pdfWriter) rule() {
	left, _, right, _ := w.pdf.GetMargins()
	y := w.pdf.GetY()
	w.pdf.SetDrawColor(ruleColor[0], ruleColor[1], ruleColor[2])
	w.pdf.SetLineWidth(1)
	w.pdf.Line(left, y, w.page.Width-right, y)
}

// keepTogether starts a new page when height does not fit above the bottom
// margin, so a rule is never stranded apart from its title.
func (w *pdfWriter) keepTogether(height float64) {
	if w.pdf.GetY()+height > w.page.Height-w.sheet.Margins.Bottom {
		w.pdf.AddPage()
	}
}

func (w *pdfWriter) item(s document.Section, it document.Item) {
	spans := markup.Spans(it.Content)
	if len(spans) == 0 {
		return
	}
	spec := w.sheet.Spec(style.ItemRole(s, it))
	w.pdf.Ln(spec.SpaceBefore)

	left := w.sheet.Margins.Left
	w.pdf.SetLeftMargin(left + spec.Indent)
	w.pdf.SetX(left + spec.Indent)

	if it.Kind == document.ListItem {
		w.setFont(spec, markup.Span{})
		w.pdf.Write(spec.Leading, w.tr("• "))
	}
	for _, sp := range spans {
		w.setFont(spec, sp)
		w.pdf.Write(spec.Leading, w.tr(sp.Text))
	}

	w.pdf.SetLeftMargin(left)
	w.pdf.Ln(spec.Leading)
	w.pdf.Ln(spec.SpaceAfter)
}

func (w *pdfWriter) setFont(spec style.Spec, sp markup.Span) {
	family := w.family
	var st string
	if spec.Bold || sp.Bold {
		st += "B"
	}
	if sp.Italic {
		st += "I"
	}
	if sp.Code && w.face.BuiltIn {
		family = "Courier"
	}
	w.pdf.SetFont(family, st, spec.FontSize)
	r, g, b := hexColor(spec.Color)
	w.pdf.SetTextColor(r, g, b)
}

func (w *pdfWriter) finish() ([]byte, int, error) {
	pages := w.pdf.PageNo()
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), pages, nil
}

func alignCode(a style.Align) string {
	if a == style.AlignCenter {
		return "C"
	}
	return "L"
}

// hexColor parses "#rrggbb"; anything else is black.
func hexColor(s string) (r, g, b int) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || len(s) != 7 {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// basicPlane replaces runes outside the Basic Multilingual Plane, which
// gofpdf's width tables cannot index.
func basicPlane(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '�'
		}
		return r
	}, s)
}
