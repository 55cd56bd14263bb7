package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GrantRoleRequest struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
	Role    string `json:"role"`
	Reason  string `json:"reason,omitempty"`
}

type RevokeRoleRequest struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
	Role    string `json:"role"`
}

type RoleGrantResponse struct {
	GrantID   string `json:"grant_id"`
	UserID    string `json:"user_id"`
	EventID   string `json:"event_id"`
	Role      string `json:"role"`
	GrantedBy string `json:"granted_by"`
	Reason    string `json:"reason,omitempty"`
	RevokedAt string `json:"revoked_at,omitempty"`
}

type UserRolesResponse struct {
	UserID string              `json:"user_id"`
	Grants []RoleGrantResponse `json:"grants"`
}
