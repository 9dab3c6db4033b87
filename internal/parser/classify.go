package parser

import (
	"strings"

	"github.com/alnah/go-resume2pdf/internal/document"
)

// classifier pairs a kind with the title keywords that select it.
type classifier struct {
	kind     document.SectionKind
	keywords []string
}

// classifiers are checked in order; the first containing keyword wins.
var classifiers = []classifier{
	{document.KindEducation, []string{"教育", "学历", "education"}},
	{document.KindExperience, []string{"工作", "经历", "职业", "experience", "work", "employment"}},
	{document.KindSkills, []string{"技能", "skills", "专业技能"}},
	{document.KindProjects, []string{"项目", "projects", "项目经验"}},
	{document.KindCertificates, []string{"证书", "认证", "certificates", "certifications"}},
}

// Classify derives a section kind from its title by case-insensitive
// keyword containment. Unmatched titles are KindOther.
func Classify(title string) document.SectionKind {
	lower := strings.ToLower(title)
	for _, c := range classifiers {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.kind
			}
		}
	}
	return document.KindOther
}
