// Package policy holds the pure access decisions: which accounts may sign in,
// which are read-only, which feature modules they reach and which menu paths
// their role may open. Nothing here performs I/O and every function is total.
package policy

// Reason explains why a Decision came out the way it did.
type Reason string

const (
	ReasonStatusPermitted    Reason = "status_permitted"
	ReasonStatusBlocked      Reason = "status_blocked"
	ReasonApplicant          Reason = "applicant"
	ReasonUnknownRole        Reason = "unknown_role"
	ReasonOutsideBase        Reason = "outside_base"
	ReasonSuperRole          Reason = "super_role"
	ReasonNoPolicyConfigured Reason = "no_policy_configured"
	ReasonUnrestricted       Reason = "unrestricted"
	ReasonBasePath           Reason = "base_path"
	ReasonListed             Reason = "listed"
	ReasonNotListed          Reason = "not_listed"
)

// Decision is the outcome of a policy check. Fail-open branches carry their
// own Reason so they can be asserted on directly.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
