package style

import (
	"math"

	"github.com/alnah/go-resume2pdf/internal/planner"
)

// Scales are the multipliers derived from a ratio and tier.
type Scales struct {
	Font    float64
	Spacing float64
	Header  float64
	Margin  float64
}

// ScalesFor returns the blend for ratio under tier. Spacing shrinks faster than
// font size in both tiers.
func ScalesFor(ratio float64, tier planner.Tier) Scales {
	var s Scales
	switch tier {
	case planner.TierAggressive:
		s.Font = math.Max(0.75, ratio+0.05)
		s.Spacing = math.Max(0.45, ratio*0.8)
		s.Header = math.Max(0.65, ratio*0.85)
	default:
		s.Font = clamp(ratio, 0.85, 0.95)
		s.Spacing = math.Max(0.6, ratio*0.9)
		s.Header = clamp(ratio, 0.8, 0.95)
	}
	s.Margin = math.Min(1, math.Max(0.8, ratio+0.15))
	return s
}

// compression describes how one role shrinks: base values, per-role floors and
// the leading factor.
type compression struct {
	font, fontFloor       float64
	header                bool
	leadFactor, leadFloor float64
	before, beforeFloor   float64
	after, afterFloor     float64
	indent                float64
}

var compressions = [roleCount]compression{
	RoleNameTitle: {
		font: 28, fontFloor: 18, header: true,
		leadFactor: 1.1, leadFloor: 20,
		after: 6, afterFloor: 2,
	},
	RoleContactInfo: {
		font: 10, fontFloor: 8,
		leadFactor: 1.2, leadFloor: 10,
		after: 12, afterFloor: 4,
	},
	RoleSectionTitle: {
		font: 14, fontFloor: 12,
		leadFactor: 1.1, leadFloor: 14,
		before: 16, beforeFloor: 8,
		after: 6, afterFloor: 4,
	},
	RoleBodyText: {
		font: 10, fontFloor: 8,
		leadFactor: 1.2, leadFloor: 10,
		before: 3, beforeFloor: 2,
		after: 3, afterFloor: 2,
	},
	RoleEntryTitle: {
		font: 11, fontFloor: 9,
		leadFactor: 1.1, leadFloor: 11,
		before: 6, beforeFloor: 4,
		after: 2, afterFloor: 1,
	},
	RoleEntryMeta: {
		font: 9, fontFloor: 8,
		leadFactor: 1.2, leadFloor: 10,
		after: 3, afterFloor: 2,
	},
	RoleBulletItem: {
		font: 9, fontFloor: 8,
		leadFactor: 1.2, leadFloor: 10,
		before: 1.5, beforeFloor: 1,
		after: 1.5, afterFloor: 1,
		indent: 10,
	},
	RoleSkillItem: {
		font: 9, fontFloor: 8,
		leadFactor: 1.2, leadFloor: 10,
		before: 1.5, beforeFloor: 1,
		after: 1.5, afterFloor: 1,
	},
}

// FontFloor returns the smallest font size r may be compressed to.
func FontFloor(r Role) float64 {
	if !r.Valid() {
		r = RoleBodyText
	}
	return compressions[r].fontFloor
}

// SpecFor returns the spec of role at ratio under tier. It is total: every
// role, including out-of-range values, yields a spec. A ratio of 1 or more
// returns the base spec unchanged.
func SpecFor(role Role, ratio float64, tier planner.Tier) Spec {
	if !role.Valid() {
		role = RoleBodyText
	}
	base := baseSpecs[role]
	if !compressing(ratio) {
		return base
	}
	ratio = math.Max(ratio, planner.MinRatio)
	return compressed(role, ScalesFor(ratio, tier))
}

func compressed(role Role, sc Scales) Spec {
	c := compressions[role]
	base := baseSpecs[role]

	fontScale := sc.Font
	if c.header {
		fontScale = sc.Header
	}
	size := math.Max(c.fontFloor, math.Round(c.font*fontScale))

	return Spec{
		FontSize:    size,
		Leading:     math.Max(c.leadFloor, math.Round(size*c.leadFactor)),
		SpaceBefore: math.Max(c.beforeFloor, c.before*sc.Spacing),
		SpaceAfter:  math.Max(c.afterFloor, c.after*sc.Spacing),
		Indent:      c.indent,
		Bold:        base.Bold,
		Align:       base.Align,
		Color:       base.Color,
	}
}

// Generate returns the stylesheet for ratio under tier. A ratio of 1 or more
// (or a non-finite ratio) returns Base() exactly; ratios below the planner's
// minimum are treated as the minimum.
func Generate(ratio float64, tier planner.Tier) Stylesheet {
	if !compressing(ratio) {
		return Base()
	}
	ratio = math.Max(ratio, planner.MinRatio)
	sc := ScalesFor(ratio, tier)

	var sheet Stylesheet
	for _, r := range Roles() {
		sheet.Specs[r] = compressed(r, sc)
	}
	sheet.Margins = BaseMargins.Scale(sc.Margin)
	sheet.Gaps = Gaps{
		Header:  math.Max(3, BaseGaps.Header*sc.Spacing),
		Rule:    math.Max(3, BaseGaps.Rule*sc.Spacing),
		Section: math.Max(4, BaseGaps.Section*sc.Spacing),
	}
	return sheet
}

func compressing(ratio float64) bool {
	return !math.IsNaN(ratio) && !math.IsInf(ratio, 0) && ratio < planner.MaxRatio
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
