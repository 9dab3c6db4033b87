// Package parser extracts a document.Document from Markdown résumé text.
//
// The parser is a best-effort extractor, not a validator: it never fails,
// and anything it cannot find is left empty.
package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-resume2pdf/internal/document"
)

// Precompiled patterns.
var (
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Level-1 heading only: "# Name" but not "## Section".
	nameHeading = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

	// Level-2 heading that opens a section. "### x" does not match.
	sectionHeading = regexp.MustCompile(`(?m)^##[ \t]+(.+)$`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	phonePattern = regexp.MustCompile(`\+?[\d \t\-()]{10,}`)

	listLine = regexp.MustCompile(`(?m)^[-*][ \t]+(.+)$`)

	blankLines = regexp.MustCompile(`\n[ \t]*\n`)
)

// minPhoneDigits rejects punctuation-heavy runs (rules, date ranges with
// few digits) that satisfy the length requirement alone.
const minPhoneDigits = 7

// addressPatterns are tried in order; the first match wins.
var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`地址[:：][ \t]*(.+)`),
	regexp.MustCompile(`住址[:：][ \t]*(.+)`),
	regexp.MustCompile(`现居[:：][ \t]*(.+)`),
	regexp.MustCompile(`(?i)address[:：][ \t]*(.+)`),
	regexp.MustCompile(`(?i)location[:：][ \t]*(.+)`),
}

// Parse turns Markdown text into a Document. Identical input always yields
// an identical Document.
func Parse(text string) document.Document {
	text = normalize(text)
	return document.Document{
		PersonalInfo: extractPersonalInfo(text),
		Sections:     extractSections(text),
	}
}

// normalize converts line endings to LF, composes Unicode (NFC) and trims
// surrounding whitespace.
func normalize(text string) string {
	text = crlfOrCR.ReplaceAllString(text, "\n")
	text = norm.NFC.String(text)
	return strings.TrimSpace(text)
}

func extractPersonalInfo(text string) document.PersonalInfo {
	var info document.PersonalInfo

	if m := nameHeading.FindStringSubmatch(text); m != nil {
		info.Name = strings.TrimSpace(m[1])
	}
	info.Email = emailPattern.FindString(text)
	info.Phone = findPhone(text)
	info.Address = findAddress(text)

	return info
}

func findPhone(text string) string {
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		if countDigits(candidate) >= minPhoneDigits {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func findAddress(text string) string {
	for _, p := range addressPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractSections splits text on level-2 headings. Content before the first
// heading belongs to the personal-info block and is dropped here.
func extractSections(text string) []document.Section {
	matches := sectionHeading.FindAllStringSubmatchIndex(text, -1)
	sections := make([]document.Section, 0, len(matches))

	for i, m := range matches {
		title := strings.TrimSpace(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(text[m[1]:end])

		sections = append(sections, document.Section{
			Title: title,
			Kind:  Classify(title),
			Items: extractItems(content),
		})
	}

	return sections
}

// extractItems returns one ListItem per list-marker line when the content
// has any; otherwise one Paragraph per blank-line separated block.
func extractItems(content string) []document.Item {
	if lines := listLine.FindAllStringSubmatch(content, -1); len(lines) > 0 {
		items := make([]document.Item, 0, len(lines))
		for _, l := range lines {
			if c := strings.TrimSpace(l[1]); c != "" {
				items = append(items, document.Item{Kind: document.ListItem, Content: c})
			}
		}
		return items
	}

	var items []document.Item
	for _, block := range blankLines.Split(content, -1) {
		if p := strings.TrimSpace(block); p != "" {
			items = append(items, document.Item{Kind: document.Paragraph, Content: p})
		}
	}
	return items
}
