package core

import (
	"github.com/wansing/newsroom/auth"
)

// CanAccess returns whether the profile is present, active and dominates the required role.
func CanAccess(p *auth.Profile, required auth.Role) bool {
	return p != nil && p.IsActive && auth.Dominates(p.Role, required)
}

// CanTransition returns whether the transition is legal and the profile may trigger it.
func CanTransition(p *auth.Profile, a *Article, to Status) bool {
	req, ok := transitions[edge{a.Status, to}]
	if !ok {
		return false
	}
	return req.allows(p, a) == ""
}

// AllowedTargets returns the statuses the profile can move the article to. It is used for action buttons.
func AllowedTargets(p *auth.Profile, a *Article) []Status {
	var allowed = []Status{}
	for _, to := range Targets(a.Status) {
		if CanTransition(p, a, to) {
			allowed = append(allowed, to)
		}
	}
	return allowed
}

// CanEdit returns whether the profile may change the content of the article.
// Authors can edit their drafts and rejected articles, editors can edit everything which is not archived.
func CanEdit(p *auth.Profile, a *Article) bool {
	if CanAccess(p, auth.Editor) {
		return a.Status != Archived
	}
	if isAuthor(p, a) {
		return a.Status == Draft || a.Status == Rejected
	}
	return false
}

// A Section is a part of the admin panel.
type Section struct {
	Name     string
	Path     string // relative to the admin panel
	Required auth.Role
}

// AdminRole is required for the admin panel as a whole.
const AdminRole = auth.Contributor

var Sections = []Section{
	{"Dashboard", "", auth.Contributor},
	{"Articles", "articles", auth.Contributor},
	{"Create article", "create", auth.Contributor},
	{"Analytics", "analytics", auth.Contributor},
	{"Approvals", "approvals", auth.Editor},
	{"Users", "users", auth.Editor},
	{"Settings", "settings", auth.Editor},
}

// VisibleSections returns the sections the profile can access.
func VisibleSections(p *auth.Profile) []Section {
	var visible = []Section{}
	for _, s := range Sections {
		if CanAccess(p, s.Required) {
			visible = append(visible, s)
		}
	}
	return visible
}

// CanView returns whether the profile can read the article. Published articles are public,
// other articles can be previewed by their author and by editors.
func CanView(p *auth.Profile, a *Article) bool {
	if a.Status == Published {
		return true
	}
	return isAuthor(p, a) || CanAccess(p, auth.Editor)
}
