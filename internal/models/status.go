package models

import "strings"

// AccountStatus is an upper-cased account status. Its meaning depends on the
// owning principal's RoleFamily.
type AccountStatus string

// Staff-family statuses.
const (
	StatusActive         AccountStatus = "ACTIVE"
	StatusInactive       AccountStatus = "INACTIVE"
	StatusSuspended      AccountStatus = "SUSPENDED"
	StatusLeaveOfAbsence AccountStatus = "LEAVE_OF_ABSENCE"
	StatusSacked         AccountStatus = "SACKED"
	StatusTerminated     AccountStatus = "TERMINATED"
	StatusRetired        AccountStatus = "RETIRED"
	StatusResigned       AccountStatus = "RESIGNED"
)

// Student statuses. INACTIVE is shared with the staff vocabulary.
const (
	StatusGraduated   AccountStatus = "GRADUATED"
	StatusWithdrawn   AccountStatus = "WITHDRAWN"
	StatusTransferred AccountStatus = "TRANSFERRED"
	StatusAbsconded   AccountStatus = "ABSCONDED"
)

// StaffStatuses lists every enumerated staff-family status.
var StaffStatuses = []AccountStatus{
	StatusActive, StatusInactive, StatusSuspended, StatusLeaveOfAbsence,
	StatusSacked, StatusTerminated, StatusRetired, StatusResigned,
}

// StudentStatuses lists every enumerated student status.
var StudentStatuses = []AccountStatus{
	StatusGraduated, StatusInactive, StatusWithdrawn, StatusTransferred, StatusAbsconded,
}

// ParseAccountStatus normalises a raw status value.
func ParseAccountStatus(raw string) AccountStatus {
	return AccountStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

func (s AccountStatus) String() string {
	return string(s)
}
