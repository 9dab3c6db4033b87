package markup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HTMLConverter renders one item's inline Markdown to an HTML fragment.
type HTMLConverter struct {
	md goldmark.Markdown
}

// NewHTMLConverter creates an HTMLConverter with GFM extensions and inline
// syntax highlighting. Styles are inlined because the fragment ends up in a
// self-contained document with no external stylesheet.
func NewHTMLConverter() *HTMLConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			// No WithUnsafe: raw HTML in résumé text is dropped.
		),
	)
	return &HTMLConverter{md: md}
}

var defaultHTMLConverter = NewHTMLConverter()

// InlineHTML renders src with the package default converter.
func InlineHTML(ctx context.Context, src string) (string, error) {
	return defaultHTMLConverter.InlineHTML(ctx, src)
}

// InlineHTML converts src to HTML. A single paragraph is unwrapped so the
// caller controls the enclosing element. Goldmark has no context support,
// so cancellation is honoured with a goroutine and select.
func (c *HTMLConverter) InlineHTML(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(src), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: unwrapParagraph(buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// unwrapParagraph strips the <p> wrapper when the fragment is exactly one
// paragraph.
func unwrapParagraph(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<p>") || !strings.HasSuffix(s, "</p>") {
		return s
	}
	inner := s[len("<p>") : len(s)-len("</p>")]
	if strings.Contains(inner, "<p>") {
		return s
	}
	return inner
}
