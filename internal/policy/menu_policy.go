package policy

import (
	"strings"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// MenuAllowList maps a role to its allowed paths. A nil slice marks the role
// as unrestricted; a missing key falls back to MenuConfig.AllowIfNoConfig.
type MenuAllowList map[models.Role][]string

// MenuConfig parameterises IsPathAllowed.
type MenuConfig struct {
	BasePath        string
	AllowIfNoConfig bool
	SuperRoles      []string
}

// DefaultSuperRoles bypass every allow-list.
var DefaultSuperRoles = []string{"admin", "superadmin", "administrator"}

// DefaultMenuAllowList is the staff menu table. It is read-only after start-up.
var DefaultMenuAllowList = MenuAllowList{
	models.RoleICT: nil,

	models.RoleStaff: {
		"/staff/dashboard", "/staff/profile", "/staff/session/current",
	},
	models.RoleLecturer: {
		"/staff/dashboard", "/staff/profile", "/staff/session/current",
		"/staff/courses", "/staff/attendance", "/staff/results/upload",
	},
	models.RoleHOD: {
		"/staff/dashboard", "/staff/profile", "/staff/session/current",
		"/staff/courses", "/staff/attendance", "/staff/results/upload",
		"/staff/results-approval",
	},
	models.RoleDean: {
		"/staff/dashboard", "/staff/profile", "/staff/session/current",
		"/staff/results-approval",
	},
	models.RoleBursary: {
		"/staff/dashboard", "/staff/profile", "/staff/session/current",
		"/staff/payments", "/staff/results-approval",
	},
	models.RoleRegistry: {
		"/staff/dashboard", "/staff/profile", "/staff/session/current",
		"/staff/students", "/staff/results-approval",
	},
	models.RoleAdmissionOfficer: {
		"/staff/dashboard", "/staff/profile", "/staff/admissions",
	},
	models.RoleAuditor: {
		"/staff/dashboard", "/staff/profile", "/staff/payments",
	},
}

// MenuPolicy evaluates path access against an allow-list table.
type MenuPolicy struct {
	table      MenuAllowList
	base       string
	allowNoCfg bool
	superRoles map[models.Role]struct{}
}

// NewMenuPolicy precomputes the normalised table and base path.
func NewMenuPolicy(table MenuAllowList, cfg MenuConfig) *MenuPolicy {
	superRoles := cfg.SuperRoles
	if superRoles == nil {
		superRoles = DefaultSuperRoles
	}
	p := &MenuPolicy{
		table:      make(MenuAllowList, len(table)),
		base:       NormalizePath(cfg.BasePath),
		allowNoCfg: cfg.AllowIfNoConfig,
		superRoles: make(map[models.Role]struct{}, len(superRoles)),
	}
	for _, r := range superRoles {
		p.superRoles[models.ParseRole(r)] = struct{}{}
	}
	for role, paths := range table {
		if paths == nil {
			p.table[role] = nil
			continue
		}
		normalized := make([]string, 0, len(paths))
		for _, path := range paths {
			normalized = append(normalized, NormalizePath(path))
		}
		p.table[role] = normalized
	}
	return p
}

// BasePath returns the normalised guarded base.
func (p *MenuPolicy) BasePath() string {
	return p.base
}

// Decide evaluates a request for path by role.
func (p *MenuPolicy) Decide(role models.Role, path string) Decision {
	requested := NormalizePath(path)
	if !withinBase(requested, p.base) {
		return allow(ReasonOutsideBase)
	}
	if _, ok := p.superRoles[role]; ok {
		return allow(ReasonSuperRole)
	}
	allowed, ok := p.table[role]
	if !ok {
		if p.allowNoCfg {
			return allow(ReasonNoPolicyConfigured)
		}
		return deny(ReasonNoPolicyConfigured)
	}
	if allowed == nil {
		return allow(ReasonUnrestricted)
	}
	if requested == p.base {
		return allow(ReasonBasePath)
	}
	for _, entry := range allowed {
		if entry == requested {
			return allow(ReasonListed)
		}
	}
	return deny(ReasonNotListed)
}

// IsPathAllowed is the boolean form of Decide.
func (p *MenuPolicy) IsPathAllowed(role models.Role, path string) bool {
	return p.Decide(role, path).Allowed
}

// IsPathAllowed evaluates a single request without keeping a MenuPolicy.
func IsPathAllowed(role models.Role, path string, table MenuAllowList, cfg MenuConfig) bool {
	return NewMenuPolicy(table, cfg).IsPathAllowed(role, path)
}

// NormalizePath trims surrounding space and trailing slashes, keeping the
// root path intact. It is idempotent.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// withinBase matches whole path segments so /staffing is not under /staff.
func withinBase(path, base string) bool {
	if base == "/" {
		return true
	}
	return path == base || strings.HasPrefix(path, base+"/")
}
