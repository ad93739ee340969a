package models

// ModuleKey names a feature area that can be restricted per principal.
type ModuleKey string

const (
	ModulePersonal   ModuleKey = "PERSONAL"
	ModuleResults    ModuleKey = "RESULTS"
	ModuleCourses    ModuleKey = "COURSES"
	ModulePayments   ModuleKey = "PAYMENTS"
	ModuleAttendance ModuleKey = "ATTENDANCE"
)

// ModuleSet is a set of module keys. A nil set means "no restriction".
type ModuleSet map[ModuleKey]struct{}

// NewModuleSet builds a set from the given keys.
func NewModuleSet(keys ...ModuleKey) ModuleSet {
	set := make(ModuleSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s ModuleSet) Has(key ModuleKey) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the members in a stable order.
func (s ModuleSet) Keys() []ModuleKey {
	if s == nil {
		return nil
	}
	order := []ModuleKey{ModulePersonal, ModuleResults, ModuleCourses, ModulePayments, ModuleAttendance}
	keys := make([]ModuleKey, 0, len(s))
	for _, k := range order {
		if s.Has(k) {
			keys = append(keys, k)
		}
	}
	for k := range s {
		known := false
		for _, o := range order {
			if o == k {
				known = true
				break
			}
		}
		if !known {
			keys = append(keys, k)
		}
	}
	return keys
}

// OrganizationalScope is the department/school a principal belongs to.
type OrganizationalScope struct {
	SchoolID     string `json:"school_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// Principal is the authenticated actor of a request. It is treated as an
// immutable value: refreshes produce a new Principal.
type Principal struct {
	ID              string              `json:"id"`
	Username        string              `json:"username,omitempty"`
	Email           string              `json:"email,omitempty"`
	FullName        string              `json:"full_name,omitempty"`
	Role            Role                `json:"role"`
	AdditionalRoles []Role              `json:"additional_roles,omitempty"`
	Status          AccountStatus       `json:"status"`
	Scope           OrganizationalScope `json:"scope"`
}

// PrincipalFromUser maps a store record onto a principal.
func PrincipalFromUser(u *User) Principal {
	p := Principal{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     ParseRole(u.Role),
		Status:   ParseAccountStatus(u.Status),
	}
	for _, raw := range u.AdditionalRoles() {
		p.AdditionalRoles = append(p.AdditionalRoles, ParseRole(raw))
	}
	if u.SchoolID != nil {
		p.Scope.SchoolID = *u.SchoolID
	}
	if u.DepartmentID != nil {
		p.Scope.DepartmentID = *u.DepartmentID
	}
	return p
}

// HasRole reports whether the role is primary or additional.
func (p Principal) HasRole(role Role) bool {
	if p.Role == role {
		return true
	}
	for _, r := range p.AdditionalRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Roles returns the primary role followed by additional roles.
func (p Principal) Roles() []Role {
	roles := make([]Role, 0, 1+len(p.AdditionalRoles))
	roles = append(roles, p.Role)
	return append(roles, p.AdditionalRoles...)
}

// WithRefresh returns a copy of p with identity, role, status and scope taken
// from the fresh store record. The ID of p is kept when the record has none.
func (p Principal) WithRefresh(u *User) Principal {
	fresh := PrincipalFromUser(u)
	if fresh.ID == "" {
		fresh.ID = p.ID
	}
	return fresh
}
