package entities

import "time"

type Role string

const (
	RoleReviewer      Role = "REVIEWER"
	RoleDecisionMaker Role = "DECISION_MAKER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleReviewer, RoleDecisionMaker:
		return true
	default:
		return false
	}
}

// RoleGrant scopes a role to a user within one event. A revoked grant stays
// on record with its revocation timestamp for auditability.
type RoleGrant struct {
	GrantID   string
	UserID    string
	EventID   string
	Role      Role
	GrantedBy string
	Reason    string
	CreatedAt time.Time
	RevokedAt *time.Time
}

func (g RoleGrant) Active() bool {
	return g.RevokedAt == nil
}
