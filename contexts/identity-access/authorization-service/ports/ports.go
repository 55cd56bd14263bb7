package ports

import (
	"context"
	"time"

	"arbiter/contexts/identity-access/authorization-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for grant rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Repository is the write/read boundary for role grant state.
type Repository interface {
	SaveGrant(ctx context.Context, grant entities.RoleGrant) error
	GetActiveGrant(ctx context.Context, userID string, eventID string, role entities.Role) (entities.RoleGrant, bool, error)
	RevokeGrant(ctx context.Context, grantID string, revokedAt time.Time) (entities.RoleGrant, error)
	ListUserGrants(ctx context.Context, userID string, eventID string) ([]entities.RoleGrant, error)
	HasActiveRole(ctx context.Context, userID string, eventID string, role entities.Role) (bool, error)
}
