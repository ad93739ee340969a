package models

import "strings"

// Role is a normalised role string. Values outside the constants below are kept
// verbatim (lowercased) so that unknown roles stay visible to policy code.
type Role string

const (
	RoleStaff            Role = "staff"
	RoleAdmin            Role = "admin"
	RoleHOD              Role = "hod"
	RoleLecturer         Role = "lecturer"
	RoleDean             Role = "dean"
	RoleICT              Role = "ict"
	RoleBursary          Role = "bursary"
	RoleRegistry         Role = "registry"
	RoleAdmissionOfficer Role = "admission_officer"
	RoleAuditor          Role = "auditor"
	RoleHealthCenter     Role = "health_center"
	RoleWorks            Role = "works"
	RoleLibrary          Role = "library"
	RoleProvost          Role = "provost"
	RoleStudentUnion     Role = "student_union"
	RoleStudent          Role = "student"
	RoleApplicant        Role = "applicant"
)

// RoleFamily groups roles that share account-status semantics.
type RoleFamily int

const (
	FamilyUnknown RoleFamily = iota
	FamilyStaff
	FamilyStudent
	FamilyApplicant
)

var staffRoles = map[Role]struct{}{
	RoleStaff:            {},
	RoleAdmin:            {},
	RoleHOD:              {},
	RoleLecturer:         {},
	RoleDean:             {},
	RoleICT:              {},
	RoleBursary:          {},
	RoleRegistry:         {},
	RoleAdmissionOfficer: {},
	RoleAuditor:          {},
	RoleHealthCenter:     {},
	RoleWorks:            {},
	RoleLibrary:          {},
	RoleProvost:          {},
	RoleStudentUnion:     {},
}

var roleReplacer = strings.NewReplacer("-", "_", " ", "_")

// ParseRole is the only place raw role strings are turned into Role values.
func ParseRole(raw string) Role {
	return Role(roleReplacer.Replace(strings.ToLower(strings.TrimSpace(raw))))
}

// Family reports which status vocabulary applies to the role.
func (r Role) Family() RoleFamily {
	if _, ok := staffRoles[r]; ok {
		return FamilyStaff
	}
	switch r {
	case RoleStudent:
		return FamilyStudent
	case RoleApplicant:
		return FamilyApplicant
	}
	return FamilyUnknown
}

// Known is false for roles that fall outside every family.
func (r Role) Known() bool {
	return r.Family() != FamilyUnknown
}

func (r Role) String() string {
	return string(r)
}
