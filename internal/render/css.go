package render

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/alnah/go-resume2pdf/internal/fonts"
	"github.com/alnah/go-resume2pdf/internal/style"
)

// cssFontFamily is the family embedded faces are declared under.
const cssFontFamily = "resume"

// fallbackFontStack follows the embedded or built-in family.
const fallbackFontStack = `"PingFang SC", "Microsoft YaHei", "Noto Sans CJK SC", Helvetica, Arial, sans-serif`

// buildCSS generates the complete stylesheet for one document. Every length
// is in points so the engine lays out what the estimator measured.
func buildCSS(sheet style.Stylesheet, page style.Page, face fonts.Face) string {
	var buf strings.Builder

	buf.WriteString(buildFontFaceCSS(face))
	buf.WriteString(buildPageCSS(sheet.Margins, page))

	family := fallbackFontStack
	if !face.BuiltIn && len(face.Regular) > 0 {
		family = `"` + cssFontFamily + `", ` + fallbackFontStack
	} else if face.Family != "" {
		family = `"` + escapeCSSString(face.Family) + `", ` + fallbackFontStack
	}

	fmt.Fprintf(&buf, `
html, body {
  margin: 0;
  padding: 0;
}
body {
  font-family: %s;
  -webkit-print-color-adjust: exact;
  print-color-adjust: exact;
}
p, h1, h2 {
  margin: 0;
}
code, pre {
  font-family: "SFMono-Regular", Menlo, Consolas, monospace;
  white-space: pre-wrap;
}
pre {
  margin: 0;
}
a {
  color: inherit;
  text-decoration: none;
}
.resume-header {
  margin-bottom: %s;
}
.section {
  margin-bottom: %s;
}
.section-rule {
  border: 0;
  border-top: 1pt solid #3498db;
  margin: %s 0;
}
.section-title {
  text-transform: uppercase;
  break-after: avoid;
  page-break-after: avoid;
}
.bullet-item::before, .skill-item::before {
  content: "\2022\0020";
}
`, family, pt(sheet.Gaps.Header), pt(sheet.Gaps.Section), pt(sheet.Gaps.Rule))

	for _, role := range style.Roles() {
		buf.WriteString(buildRoleCSS(role, sheet.Spec(role)))
	}
	return buf.String()
}

// buildRoleCSS generates the rule for one role class.
func buildRoleCSS(role style.Role, s style.Spec) string {
	weight := "normal"
	if s.Bold {
		weight = "bold"
	}
	return fmt.Sprintf(`
.%s {
  font-size: %s;
  line-height: %s;
  margin: %s 0 %s 0;
  padding-left: %s;
  font-weight: %s;
  text-align: %s;
  color: %s;
}
`, role, pt(s.FontSize), pt(s.Leading), pt(s.SpaceBefore), pt(s.SpaceAfter),
		pt(s.Indent), weight, s.Align, s.Color)
}

// buildPageCSS generates the @page rule.
func buildPageCSS(m style.Margins, page style.Page) string {
	return fmt.Sprintf(`
@page {
  size: %s %s;
  margin: %s %s %s %s;
}
`, pt(page.Width), pt(page.Height), pt(m.Top), pt(m.Right), pt(m.Bottom), pt(m.Left))
}

// buildFontFaceCSS embeds the face as data URLs. Built-in faces are left to
// the engine's own font matching.
func buildFontFaceCSS(face fonts.Face) string {
	if face.BuiltIn || len(face.Regular) == 0 {
		return ""
	}
	var buf strings.Builder
	writeFace := func(weight string, data []byte) {
		fmt.Fprintf(&buf, `
@font-face {
  font-family: "%s";
  src: url(data:font/ttf;base64,%s) format("truetype");
  font-weight: %s;
}
`, cssFontFamily, base64.StdEncoding.EncodeToString(data), weight)
	}
	writeFace("normal", face.Regular)
	writeFace("bold", face.BoldBytes())
	return buf.String()
}

// pt formats a length in points with at most two decimals.
func pt(v float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	if s == "" || s == "-0" {
		s = "0"
	}
	return s + "pt"
}

// escapeCSSString escapes a string for use inside a double-quoted CSS value.
func escapeCSSString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "<", `\3C `)
	return s
}
