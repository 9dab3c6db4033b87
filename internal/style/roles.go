// Package style defines the closed set of typographic roles, the per-role
// StyleSpec, page geometry and the tier generator that scales a base
// stylesheet by a compression ratio.
package style

import (
	"strings"

	"github.com/alnah/go-resume2pdf/internal/document"
	"github.com/alnah/go-resume2pdf/internal/markup"
)

// Role is a typographic role. The set is closed: every Role has a Spec.
type Role int

const (
	RoleNameTitle Role = iota
	RoleContactInfo
	RoleSectionTitle
	RoleBodyText
	RoleEntryTitle
	RoleEntryMeta
	RoleBulletItem
	RoleSkillItem

	roleCount
)

var roleNames = [roleCount]string{
	RoleNameTitle:    "name-title",
	RoleContactInfo:  "contact-info",
	RoleSectionTitle: "section-title",
	RoleBodyText:     "body-text",
	RoleEntryTitle:   "entry-title",
	RoleEntryMeta:    "entry-meta",
	RoleBulletItem:   "bullet-item",
	RoleSkillItem:    "skill-item",
}

// String returns the kebab-case role name, also used as CSS class.
func (r Role) String() string {
	if !r.Valid() {
		return "body-text"
	}
	return roleNames[r]
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r >= 0 && r < roleCount
}

// Roles returns all roles in declaration order.
func Roles() []Role {
	roles := make([]Role, roleCount)
	for i := range roles {
		roles[i] = Role(i)
	}
	return roles
}

// ItemRole selects the role an item is rendered with. The estimator and both
// renderers share it so that what is measured is what is drawn.
func ItemRole(section document.Section, item document.Item) Role {
	if item.Kind == document.ListItem {
		if section.Kind == document.KindSkills {
			return RoleSkillItem
		}
		return RoleBulletItem
	}
	if section.IsStructured() {
		if strings.Contains(item.Content, "|") {
			return RoleEntryTitle
		}
		if markup.IsWhollyEmphasised(item.Content) {
			return RoleEntryMeta
		}
	}
	return RoleBodyText
}
