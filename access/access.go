// Package access holds the capability policy shared by the edge boundary,
// the section guard and post-login routing. It is pure and has no I/O.
package access

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/marketplace-client/users"
)

type Section string

const (
	SectionPublic Section = "public"
	SectionShared Section = "shared"
	SectionAdmin  Section = "admin"
	SectionBuyer  Section = "buyer"
	SectionSolver Section = "solver"
)

const (
	LandingPath = "/"
	LoginRoute  = "/login"
	// NextParam carries the originally requested location through login.
	NextParam = "next"
)

var publicExact = map[string]struct{}{
	"/":            {},
	"/login":       {},
	"/health":      {},
	"/config.json": {},
}

var publicPrefixes = []string{"/auth/callback", "/static/"}

var roleSections = []struct {
	prefix  string
	section Section
}{
	{"/admin", SectionAdmin},
	{"/buyer", SectionBuyer},
	{"/solver", SectionSolver},
}

// SectionForPath classifies a request path. Unknown paths are shared, so a
// signed-in user of any role may reach them.
func SectionForPath(path string) Section {
	if path == "" {
		path = "/"
	}
	if _, ok := publicExact[path]; ok {
		return SectionPublic
	}
	for _, p := range publicPrefixes {
		if hasSegmentPrefix(path, p) {
			return SectionPublic
		}
	}
	for _, rs := range roleSections {
		if hasSegmentPrefix(path, rs.prefix) {
			return rs.section
		}
	}
	return SectionShared
}

// hasSegmentPrefix matches prefix as a whole path segment so that /buyers
// is not mistaken for /buyer.
func hasSegmentPrefix(path, prefix string) bool {
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// IsPublic reports whether path needs no session at all.
func IsPublic(path string) bool {
	return SectionForPath(path) == SectionPublic
}

// CanAccess is total: every role and section combination has an answer.
func CanAccess(role users.Role, section Section) bool {
	switch section {
	case SectionPublic:
		return true
	case SectionShared:
		return role.Known()
	case SectionAdmin:
		return role == users.RoleAdmin
	case SectionBuyer:
		return role == users.RoleBuyer
	case SectionSolver:
		return role == users.RoleSolver
	}
	return false
}

// CanAccessPath is CanAccess over SectionForPath.
func CanAccessPath(role users.Role, path string) bool {
	return CanAccess(role, SectionForPath(path))
}

// RouteForRole returns the home of a role. It never fails; unknown roles go
// to the generic landing page.
func RouteForRole(role users.Role) string {
	switch role {
	case users.RoleAdmin:
		return "/admin"
	case users.RoleBuyer:
		return "/buyer"
	case users.RoleSolver:
		return "/solver"
	}
	return LandingPath
}

// LoginPath builds the login location carrying next. Public destinations are
// not worth returning to and are omitted.
func LoginPath(next string) string {
	next = SanitizeNext(next)
	if next == "" || IsPublic(pathOnly(next)) {
		return LoginRoute
	}
	return LoginRoute + "?" + url.Values{NextParam: {next}}.Encode()
}

// SanitizeNext keeps only same-origin absolute paths. Anything that could
// leave the site (scheme, host, protocol-relative) is dropped.
func SanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	return next
}

// ReturnTo picks where a freshly signed-in role lands: next when the role
// may open it, otherwise the role's home.
func ReturnTo(role users.Role, next string) string {
	next = SanitizeNext(next)
	if next != "" && !IsPublic(pathOnly(next)) && CanAccessPath(role, pathOnly(next)) {
		return next
	}
	return RouteForRole(role)
}

func pathOnly(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
