// Package policy holds the single declarative description of which routes are
// public, which need any authenticated caller and which need a specific role.
// The BFF guard and the backoffice gate both consult it, so the two enforcement
// points read the same table.
package policy

import (
	"net/http"
	"strings"

	"github.com/piar/backoffice/internal/core/domain"
)

// Rule binds a route pattern to an access requirement.
//
// Pattern is either exact ("/login") or a subtree ("/dashboard/*", which also
// matches "/dashboard"). An empty Method matches any method.
type Rule struct {
	Name    string
	Method  string
	Pattern string
	Public  bool
	Role    domain.Role
	// RedirectAuthenticated marks public pages a signed-in user is sent away from.
	RedirectAuthenticated bool
}

// Decision is the outcome of evaluating a request against the policy.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// fallback applies to every path no rule matches.
var fallback = Rule{Name: "default", Pattern: "/*"}

// Policy is an ordered rule list; the first matching rule wins.
type Policy struct {
	rules []Rule
}

// New returns a policy evaluating rules in order.
func New(rules ...Rule) *Policy {
	return &Policy{rules: append([]Rule(nil), rules...)}
}

// Default is the backoffice policy shared by the BFF and the gateway.
func Default() *Policy {
	return New(
		// Gateway pages (locale prefix already stripped).
		Rule{Name: "home", Pattern: "/", Public: true, RedirectAuthenticated: true},
		Rule{Name: "login", Pattern: "/login", Public: true, RedirectAuthenticated: true},
		Rule{Name: "register", Pattern: "/register", Public: true, RedirectAuthenticated: true},
		Rule{Name: "forgot-password", Pattern: "/forgot-password", Public: true, RedirectAuthenticated: true},
		Rule{Name: "unauthorized", Pattern: "/unauthorized", Public: true},
		Rule{Name: "logout", Method: http.MethodPost, Pattern: "/logout"},
		Rule{Name: "dashboard", Pattern: "/dashboard/*", Role: domain.RoleAdmin},

		// BFF endpoints.
		Rule{Name: "auth-login", Method: http.MethodPost, Pattern: "/auth/login", Public: true},
		Rule{Name: "auth-register", Method: http.MethodPost, Pattern: "/auth/register", Public: true},
		Rule{Name: "auth-forgot-password", Method: http.MethodPost, Pattern: "/auth/forgot-password", Public: true},
		Rule{Name: "auth-roles", Method: http.MethodPatch, Pattern: "/auth/roles", Role: domain.RoleAdmin},
		Rule{Name: "auth-logout", Method: http.MethodPost, Pattern: "/auth/logout"},
		Rule{Name: "auth-me", Method: http.MethodGet, Pattern: "/auth/me"},
	)
}

// Rules returns a copy of the rule list.
func (p *Policy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Match returns the first rule matching method and path, or the
// authenticated-only fallback.
func (p *Policy) Match(method, path string) Rule {
	path = normalize(path)
	for _, r := range p.rules {
		if r.matches(method, path) {
			return r
		}
	}
	return fallback
}

// IsPublic reports whether the route needs no authentication.
func (p *Policy) IsPublic(method, path string) bool {
	return p.Match(method, path).Public
}

// Decide evaluates a caller against the matching rule.
func (p *Policy) Decide(method, path string, role domain.Role, authenticated bool) Decision {
	return p.Match(method, path).Decide(role, authenticated)
}

// Decide evaluates a caller against r.
func (r Rule) Decide(role domain.Role, authenticated bool) Decision {
	if r.Public {
		return Allow
	}
	if !authenticated {
		return DenyUnauthenticated
	}
	if !role.Satisfies(r.Role) {
		return DenyForbidden
	}
	return Allow
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/") || prefix == ""
	}
	return path == r.Pattern
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
