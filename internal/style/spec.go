package style

// Align is the horizontal alignment of a role's text.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// String returns the CSS text-align keyword.
func (a Align) String() string {
	if a == AlignCenter {
		return "center"
	}
	return "left"
}

// Spec is the concrete style of one role. All lengths are in points.
type Spec struct {
	FontSize    float64
	Leading     float64
	SpaceBefore float64
	SpaceAfter  float64
	Indent      float64
	Bold        bool
	Align       Align
	Color       string // #rrggbb
}

// Margins are page margins in points.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Scale returns m multiplied by f.
func (m Margins) Scale(f float64) Margins {
	return Margins{
		Top:    m.Top * f,
		Bottom: m.Bottom * f,
		Left:   m.Left * f,
		Right:  m.Right * f,
	}
}

// Gaps are the fixed vertical spacers that are not part of any role:
// after the header block, around a section rule and after each section.
type Gaps struct {
	Header  float64
	Rule    float64
	Section float64
}

// Stylesheet maps every role to a Spec, plus page margins and gaps.
// It is a value; copies are independent.
type Stylesheet struct {
	Specs   [roleCount]Spec
	Margins Margins
	Gaps    Gaps
}

// Spec returns the spec of r. Unknown roles get the body text spec.
func (s Stylesheet) Spec(r Role) Spec {
	if !r.Valid() {
		return s.Specs[RoleBodyText]
	}
	return s.Specs[r]
}

// BaseMargins are the uncompressed margins.
var BaseMargins = Margins{Top: 50, Bottom: 50, Left: 60, Right: 60}

// BaseGaps are the uncompressed gaps.
var BaseGaps = Gaps{Header: 10, Rule: 8, Section: 12}

var baseSpecs = [roleCount]Spec{
	RoleNameTitle: {
		FontSize: 28, Leading: 32, SpaceBefore: 0, SpaceAfter: 8,
		Bold: true, Align: AlignCenter, Color: "#1a1a1a",
	},
	RoleContactInfo: {
		FontSize: 10, Leading: 14, SpaceBefore: 0, SpaceAfter: 20,
		Align: AlignCenter, Color: "#666666",
	},
	RoleSectionTitle: {
		FontSize: 14, Leading: 18, SpaceBefore: 20, SpaceAfter: 8,
		Bold: true, Color: "#2c3e50",
	},
	RoleBodyText: {
		FontSize: 10, Leading: 14, SpaceBefore: 4, SpaceAfter: 4,
		Color: "#333333",
	},
	RoleEntryTitle: {
		FontSize: 11, Leading: 13, SpaceBefore: 8, SpaceAfter: 2,
		Bold: true, Color: "#2c3e50",
	},
	RoleEntryMeta: {
		FontSize: 9, Leading: 11, SpaceBefore: 0, SpaceAfter: 4,
		Color: "#7f8c8d",
	},
	RoleBulletItem: {
		FontSize: 9, Leading: 12, SpaceBefore: 2, SpaceAfter: 2, Indent: 12,
		Color: "#444444",
	},
	RoleSkillItem: {
		FontSize: 9, Leading: 11, SpaceBefore: 2, SpaceAfter: 2,
		Color: "#444444",
	},
}

// Base returns the uncompressed stylesheet.
func Base() Stylesheet {
	return Stylesheet{
		Specs:   baseSpecs,
		Margins: BaseMargins,
		Gaps:    BaseGaps,
	}
}
