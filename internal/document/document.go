// Package document defines the render-agnostic résumé model produced by the
// parser and consumed read-only by the estimator and the renderers.
package document

import "strings"

// SectionKind classifies a section by its title.
type SectionKind int

// Section kinds, in classification priority order.
const (
	KindOther SectionKind = iota
	KindEducation
	KindExperience
	KindSkills
	KindProjects
	KindCertificates
)

var kindNames = [...]string{
	KindOther:        "other",
	KindEducation:    "education",
	KindExperience:   "experience",
	KindSkills:       "skills",
	KindProjects:     "projects",
	KindCertificates: "certificates",
}

// String returns the lower-case kind name ("education", "other", ...).
func (k SectionKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "other"
	}
	return kindNames[k]
}

// MarshalText encodes the kind as its name for JSON output.
func (k SectionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ItemKind distinguishes list entries from free paragraphs.
type ItemKind int

const (
	ListItem ItemKind = iota
	Paragraph
)

// String returns "list_item" or "paragraph".
func (k ItemKind) String() string {
	if k == Paragraph {
		return "paragraph"
	}
	return "list_item"
}

// MarshalText encodes the kind as its name for JSON output.
func (k ItemKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// PersonalInfo holds header fields. Empty strings mean absent.
type PersonalInfo struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// HasContact reports whether any contact field is present.
func (p PersonalInfo) HasContact() bool {
	return p.Email != "" || p.Phone != "" || p.Address != ""
}

// ContactFields returns the present contact fields in display order
// (email, phone, address).
func (p PersonalInfo) ContactFields() []string {
	fields := make([]string, 0, 3)
	for _, f := range []string{p.Email, p.Phone, p.Address} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Item is one entry of a section. Content keeps its inline Markdown
// decoration; stripping happens at render time.
type Item struct {
	Kind    ItemKind `json:"kind"`
	Content string   `json:"content"`
}

// Section is a titled, ordered group of items.
type Section struct {
	Title string      `json:"title"`
	Kind  SectionKind `json:"kind"`
	Items []Item      `json:"items"`
}

// IsStructured reports whether the section holds dated entries
// (experience, education, projects) whose title lines get entry styling.
func (s Section) IsStructured() bool {
	switch s.Kind {
	case KindExperience, KindEducation, KindProjects:
		return true
	}
	return false
}

// Document is the parsed résumé. Sections keep source order.
type Document struct {
	PersonalInfo PersonalInfo `json:"personal_info"`
	Sections     []Section    `json:"sections"`
}

// Stats summarises document size for logging.
type Stats struct {
	Sections int
	Items    int
	Runes    int
}

// Stats counts sections, items and content runes.
func (d Document) Stats() Stats {
	s := Stats{Sections: len(d.Sections)}
	for _, sec := range d.Sections {
		s.Items += len(sec.Items)
		for _, it := range sec.Items {
			s.Runes += len([]rune(it.Content))
		}
	}
	return s
}

// Degraded reports whether the parser could only extract a partial
// document: no name or no sections.
func (d Document) Degraded() bool {
	return strings.TrimSpace(d.PersonalInfo.Name) == "" || len(d.Sections) == 0
}
