// Package markup turns the inline Markdown decoration kept in document items
// into styled text spans, plain text or an HTML fragment.
//
// Items keep their decoration in the document model; this package is the only
// place it is interpreted, so no renderer ever emits raw "**" or "*" markers.
package markup

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Span is a run of text sharing one inline style.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
}

func (s Span) sameStyle(o Span) bool {
	return s.Bold == o.Bold && s.Italic == o.Italic && s.Code == o.Code
}

// inlineParser only parses; rendering goes through Converter.
var inlineParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// cjkLeadingPunct is removed from the start of each plain-text line.
const cjkLeadingPunct = "，。；：！？、"

// Spans parses src and returns its text as styled runs. Block structure is
// flattened: consecutive blocks and soft line breaks become "\n". Adjacent
// runs with the same style are merged.
func Spans(src string) []Span {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	source := []byte(src)
	root := inlineParser.Parse(text.NewReader(source))

	w := &spanWriter{source: source}
	_ = ast.Walk(root, w.visit)
	return w.spans
}

// Plain returns src with all decoration removed and the enclosed text kept.
func Plain(src string) string {
	var b strings.Builder
	for _, s := range Spans(src) {
		b.WriteString(s.Text)
	}
	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(l, cjkLeadingPunct)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// IsWhollyEmphasised reports whether all visible text of src sits in a single
// bold or italic run, e.g. "*Acme Corp, 2019 - 2021*".
func IsWhollyEmphasised(src string) bool {
	runs := 0
	for _, s := range Spans(src) {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		if runs > 0 || s.Code || (!s.Bold && !s.Italic) {
			return false
		}
		runs++
	}
	return runs == 1
}

type spanWriter struct {
	source []byte
	spans  []Span

	bold, italic, code int
}

func (w *spanWriter) current() Span {
	return Span{Bold: w.bold > 0, Italic: w.italic > 0, Code: w.code > 0}
}

func (w *spanWriter) emit(s string) {
	if s == "" {
		return
	}
	span := w.current()
	span.Text = s
	if n := len(w.spans); n > 0 && w.spans[n-1].sameStyle(span) {
		w.spans[n-1].Text += s
		return
	}
	w.spans = append(w.spans, span)
}

// newline appends a line break to the last run; a leading break is dropped.
func (w *spanWriter) newline() {
	if n := len(w.spans); n > 0 && !strings.HasSuffix(w.spans[n-1].Text, "\n") {
		w.spans[n-1].Text += "\n"
	}
}

func (w *spanWriter) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if n.Type() == ast.TypeBlock {
		if entering && n.PreviousSibling() != nil {
			w.newline()
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			if entering {
				w.codeLines(n)
			}
			return ast.WalkSkipChildren, nil
		case ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	}

	switch node := n.(type) {
	case *ast.Emphasis:
		d := 1
		if !entering {
			d = -1
		}
		if node.Level >= 2 {
			w.bold += d
		} else {
			w.italic += d
		}
	case *ast.CodeSpan:
		if entering {
			w.code++
		} else {
			w.code--
		}
	case *ast.Text:
		if !entering {
			break
		}
		v := node.Value(w.source)
		if w.code == 0 {
			v = util.UnescapePunctuations(v)
			v = util.ResolveNumericReferences(v)
			v = util.ResolveEntityNames(v)
		}
		w.emit(string(v))
		if node.SoftLineBreak() || node.HardLineBreak() {
			if w.code > 0 {
				w.emit(" ")
			} else {
				w.newline()
			}
		}
	case *ast.String:
		if entering {
			w.emit(string(node.Value))
		}
	case *ast.AutoLink:
		if entering {
			w.emit(string(node.Label(w.source)))
		}
	case *ast.RawHTML:
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (w *spanWriter) codeLines(n ast.Node) {
	w.code++
	defer func() { w.code-- }()

	lines := n.Lines()
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(w.source))
	}
	w.emit(strings.TrimRight(b.String(), "\n"))
}
