package policy

import (
	"fmt"

	"github.com/noah-isme/uniportal-api/internal/models"
)

var staffLoginStatuses = map[models.AccountStatus]struct{}{
	models.StatusActive:         {},
	models.StatusLeaveOfAbsence: {},
	models.StatusRetired:        {},
}

var staffBlockedMessages = map[models.AccountStatus]string{
	models.StatusInactive:   "Your staff account is inactive. Please contact the ICT unit to reactivate it.",
	models.StatusSuspended:  "Your staff account has been suspended. Please contact the Registry for clarification.",
	models.StatusSacked:     "Your appointment with the university has been terminated by dismissal. Portal access is no longer available.",
	models.StatusTerminated: "Your appointment with the university has been terminated. Portal access is no longer available.",
	models.StatusResigned:   "Our records show you have resigned from the university. Portal access is no longer available.",
}

var studentBlockedMessages = map[models.AccountStatus]string{
	models.StatusInactive:    "Your student account is inactive. Please contact the Registry.",
	models.StatusWithdrawn:   "You have been withdrawn from the university. Please contact the Registry if you believe this is an error.",
	models.StatusTransferred: "Your records show a transfer out of the university. Portal access has been closed.",
	models.StatusAbsconded:   "Your studentship has been marked as absconded. Please report to Student Affairs.",
}

// DecideLogin reports whether a principal with the given role and status may
// sign in. Students are admitted only when GRADUATED; no implicit enrolled
// status exists in the student vocabulary.
func DecideLogin(status models.AccountStatus, role models.Role) Decision {
	switch role.Family() {
	case models.FamilyStaff:
		if _, ok := staffLoginStatuses[status]; ok {
			return allow(ReasonStatusPermitted)
		}
		return deny(ReasonStatusBlocked)
	case models.FamilyStudent:
		if status == models.StatusGraduated {
			return allow(ReasonStatusPermitted)
		}
		return deny(ReasonStatusBlocked)
	case models.FamilyApplicant:
		return allow(ReasonApplicant)
	default:
		return allow(ReasonUnknownRole)
	}
}

// IsLoginAllowed is the boolean form of DecideLogin.
func IsLoginAllowed(status models.AccountStatus, role models.Role) bool {
	return DecideLogin(status, role).Allowed
}

// IsReadOnly reports whether the principal may sign in but not write.
func IsReadOnly(status models.AccountStatus, role models.Role) bool {
	if role == models.RoleStudent {
		return status == models.StatusGraduated
	}
	return status == models.StatusLeaveOfAbsence || status == models.StatusRetired
}

// BlockedMessage explains to the principal why sign-in was refused.
func BlockedMessage(status models.AccountStatus, role models.Role) string {
	var table map[models.AccountStatus]string
	switch role.Family() {
	case models.FamilyStaff:
		table = staffBlockedMessages
	case models.FamilyStudent:
		table = studentBlockedMessages
	}
	if msg, ok := table[status]; ok {
		return msg
	}
	return fmt.Sprintf("Access Denied due to status: %s", status)
}

// ReadOnlyActionMessage explains why a write was refused for a read-only
// principal. feature names the attempted action and may be empty.
func ReadOnlyActionMessage(status models.AccountStatus, role models.Role, feature string) string {
	action := "this action"
	if feature != "" {
		action = feature
	}
	switch {
	case role == models.RoleStudent && status == models.StatusGraduated:
		return fmt.Sprintf("Graduated students have read-only access. You can view your personal records and results, but %s is not available.", action)
	case status == models.StatusLeaveOfAbsence:
		return fmt.Sprintf("You are currently on sabbatical leave. Your account is read-only and %s is not available until you resume.", action)
	case status == models.StatusRetired:
		return fmt.Sprintf("Your account is read-only because you have retired. %s is not available.", capitalize(action))
	}
	return fmt.Sprintf("Your account is read-only. %s is not available.", capitalize(action))
}

// AllowedModules returns the feature modules a principal may reach, or nil
// when no module-level restriction applies.
func AllowedModules(role models.Role, status models.AccountStatus) models.ModuleSet {
	if role == models.RoleStudent && status == models.StatusGraduated {
		return models.NewModuleSet(models.ModulePersonal, models.ModuleResults)
	}
	return nil
}

// CanUseModule is true when modules are unrestricted or key is a member.
func CanUseModule(role models.Role, status models.AccountStatus, key models.ModuleKey) bool {
	allowed := AllowedModules(role, status)
	if allowed == nil {
		return true
	}
	return allowed.Has(key)
}

// LandingPath is where a freshly signed-in principal is sent.
func LandingPath(role models.Role) string {
	switch role.Family() {
	case models.FamilyStaff:
		return "/staff/dashboard"
	case models.FamilyStudent:
		return "/student/dashboard"
	case models.FamilyApplicant:
		return "/applicant/dashboard"
	}
	return "/"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
