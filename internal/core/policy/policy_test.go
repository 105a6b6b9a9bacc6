package policy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piar/backoffice/internal/core/domain"
)

func TestDefault_PublicPages(t *testing.T) {
	p := Default()
	for _, path := range []string{"/", "/login", "/register", "/forgot-password", "/unauthorized", "/login/"} {
		assert.True(t, p.IsPublic(http.MethodGet, path), path)
	}
	assert.False(t, p.IsPublic(http.MethodGet, "/dashboard"))
	assert.False(t, p.IsPublic(http.MethodGet, "/settings"))
}

func TestDefault_RedirectAuthenticated(t *testing.T) {
	p := Default()
	assert.True(t, p.Match(http.MethodGet, "/login").RedirectAuthenticated)
	assert.True(t, p.Match(http.MethodGet, "/").RedirectAuthenticated)
	assert.False(t, p.Match(http.MethodGet, "/unauthorized").RedirectAuthenticated)
}

func TestDefault_DashboardRequiresAdmin(t *testing.T) {
	p := Default()
	cases := []struct {
		path string
		role domain.Role
		auth bool
		want Decision
	}{
		{"/dashboard", "", false, DenyUnauthenticated},
		{"/dashboard", domain.RoleUser, true, DenyForbidden},
		{"/dashboard", domain.RoleAdmin, true, Allow},
		{"/dashboard/users/1", domain.RoleUser, true, DenyForbidden},
		{"/dashboard/users/1", domain.RoleAdmin, true, Allow},
		{"/dashboardx", domain.RoleUser, true, Allow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, p.Decide(http.MethodGet, tc.path, tc.role, tc.auth), tc.path)
	}
}

func TestDefault_BFFRoutes(t *testing.T) {
	p := Default()
	assert.Equal(t, Allow, p.Decide(http.MethodPost, "/auth/login", "", false))
	assert.Equal(t, Allow, p.Decide(http.MethodPost, "/auth/register", "", false))
	assert.Equal(t, Allow, p.Decide(http.MethodPost, "/auth/forgot-password", "", false))
	assert.Equal(t, DenyUnauthenticated, p.Decide(http.MethodPatch, "/auth/roles", "", false))
	assert.Equal(t, DenyForbidden, p.Decide(http.MethodPatch, "/auth/roles", domain.RoleUser, true))
	assert.Equal(t, Allow, p.Decide(http.MethodPatch, "/auth/roles", domain.RoleAdmin, true))
	assert.Equal(t, Allow, p.Decide(http.MethodGet, "/auth/me", domain.RoleUser, true))
	// Method mismatch falls through to the authenticated default.
	assert.Equal(t, DenyUnauthenticated, p.Decide(http.MethodGet, "/auth/login", "", false))
}

func TestMatch_FallbackAndQuery(t *testing.T) {
	p := New(Rule{Name: "a", Pattern: "/a"})
	assert.Equal(t, "a", p.Match(http.MethodGet, "/a?x=1").Name)
	assert.Equal(t, "default", p.Match(http.MethodGet, "/b").Name)
	assert.Equal(t, DenyUnauthenticated, p.Decide(http.MethodGet, "/b", "", false))
	assert.Equal(t, Allow, p.Decide(http.MethodGet, "/b", domain.RoleUser, true))
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "forbidden", DenyForbidden.String())
	assert.Equal(t, "unauthenticated", DenyUnauthenticated.String())
}
