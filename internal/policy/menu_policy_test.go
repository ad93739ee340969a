package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/uniportal-api/internal/models"
)

func TestNormalizePath(t *testing.T) {
	inputs := []string{"/staff/", "/staff", "/", "", "//", "/staff//", " /staff/results/ "}
	for _, in := range inputs {
		once := NormalizePath(in)
		assert.Equal(t, once, NormalizePath(once), "input %q", in)
	}
	assert.Equal(t, "/staff", NormalizePath("/staff/"))
	assert.Equal(t, "/staff", NormalizePath("/staff"))
	assert.Equal(t, "/", NormalizePath("/"))
}

func newTestMenuPolicy(table MenuAllowList, allowNoCfg bool) *MenuPolicy {
	return NewMenuPolicy(table, MenuConfig{BasePath: "/staff/", AllowIfNoConfig: allowNoCfg})
}

func TestSuperRolesOverrideAllowList(t *testing.T) {
	table := MenuAllowList{models.RoleAdmin: {"/staff/dashboard"}}
	p := newTestMenuPolicy(table, false)

	d := p.Decide(models.ParseRole("ADMIN"), "/staff/session/current")
	assert.Equal(t, Decision{Allowed: true, Reason: ReasonSuperRole}, d)
	assert.True(t, p.IsPathAllowed(models.ParseRole("superadmin"), "/staff/never/listed"))
}

func TestMenuDecisionBranches(t *testing.T) {
	table := MenuAllowList{
		models.RoleICT:      nil,
		models.RoleLecturer: {"/staff/dashboard/", "/staff/courses"},
	}
	p := newTestMenuPolicy(table, true)

	cases := []struct {
		name string
		role models.Role
		path string
		want Decision
	}{
		{"outside base", models.RoleLecturer, "/student/dashboard", allow(ReasonOutsideBase)},
		{"segment aware base", models.RoleLecturer, "/staffing", allow(ReasonOutsideBase)},
		{"unrestricted", models.RoleICT, "/staff/anything", allow(ReasonUnrestricted)},
		{"no entry", models.RoleWorks, "/staff/anything", allow(ReasonNoPolicyConfigured)},
		{"base path", models.RoleLecturer, "/staff/", allow(ReasonBasePath)},
		{"listed with trailing slash", models.RoleLecturer, "/staff/dashboard/", allow(ReasonListed)},
		{"listed entry normalised", models.RoleLecturer, "/staff/dashboard", allow(ReasonListed)},
		{"no prefix matching", models.RoleLecturer, "/staff/courses/101", deny(ReasonNotListed)},
		{"not listed", models.RoleLecturer, "/staff/payments", deny(ReasonNotListed)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Decide(tc.role, tc.path))
		})
	}
}

func TestAllowIfNoConfigFalse(t *testing.T) {
	p := newTestMenuPolicy(MenuAllowList{}, false)
	assert.Equal(t, deny(ReasonNoPolicyConfigured), p.Decide(models.RoleWorks, "/staff/dashboard"))
}

func TestIsPathAllowedWithDefaults(t *testing.T) {
	cfg := MenuConfig{BasePath: "/staff", AllowIfNoConfig: true}
	assert.True(t, IsPathAllowed(models.RoleHOD, "/staff/results-approval", DefaultMenuAllowList, cfg))
	assert.False(t, IsPathAllowed(models.RoleLecturer, "/staff/results-approval", DefaultMenuAllowList, cfg))
	assert.True(t, IsPathAllowed(models.RoleAdmin, "/staff/results-approval", DefaultMenuAllowList, cfg))
}
