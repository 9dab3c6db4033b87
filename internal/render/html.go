package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/alnah/go-resume2pdf/internal/document"
	"github.com/alnah/go-resume2pdf/internal/fonts"
	"github.com/alnah/go-resume2pdf/internal/markup"
	"github.com/alnah/go-resume2pdf/internal/style"
)

//go:embed templates/resume.html
var resumeTemplate string

var documentTemplate = template.Must(template.New("resume").Parse(resumeTemplate))

// htmlDocument is the template data for one résumé.
type htmlDocument struct {
	Title    string
	CSS      template.CSS
	Name     string
	Contact  []string
	Sections []htmlSection
}

type htmlSection struct {
	Title string
	Kind  string
	Items []htmlItem
}

type htmlItem struct {
	Role string
	HTML template.HTML
}

// SerializeHTML renders doc as a complete, self-contained HTML document
// styled by sheet. Inline decoration becomes markup; raw HTML in the source
// is dropped by the Markdown renderer.
func SerializeHTML(ctx context.Context, doc document.Document, sheet style.Stylesheet, page style.Page, face fonts.Face) ([]byte, error) {
	data := htmlDocument{
		Title: markup.Plain(doc.PersonalInfo.Name),
		CSS:   template.CSS(buildCSS(sheet, page, face)), // #nosec G203 -- generated from numeric specs and escaped names
		Name:  markup.Plain(doc.PersonalInfo.Name),
	}
	if data.Title == "" {
		data.Title = "Resume"
	}
	for _, f := range doc.PersonalInfo.ContactFields() {
		if s := markup.Plain(f); s != "" {
			data.Contact = append(data.Contact, s)
		}
	}

	for _, s := range doc.Sections {
		hs := htmlSection{Title: markup.Plain(s.Title), Kind: s.Kind.String()}
		for _, it := range s.Items {
			if markup.Plain(it.Content) == "" {
				continue
			}
			frag, err := markup.InlineHTML(ctx, it.Content)
			if err != nil {
				return nil, err
			}
			hs.Items = append(hs.Items, htmlItem{
				Role: style.ItemRole(s, it).String(),
				HTML: template.HTML(frag), // #nosec G203 -- goldmark output without unsafe mode
			})
		}
		data.Sections = append(data.Sections, hs)
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: executing template: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}
