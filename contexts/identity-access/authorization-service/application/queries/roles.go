package queries

import (
	"context"
	"strings"

	"arbiter/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "arbiter/contexts/identity-access/authorization-service/domain/errors"
	"arbiter/contexts/identity-access/authorization-service/ports"
)

// RoleQueryUseCase serves role lookups for other modules and the HTTP API.
type RoleQueryUseCase struct {
	Repository ports.Repository
}

func (uc RoleQueryUseCase) HasRole(
	ctx context.Context,
	userID string,
	eventID string,
	role entities.Role,
) (bool, error) {
	userID = strings.TrimSpace(userID)
	eventID = strings.TrimSpace(eventID)
	if userID == "" || eventID == "" {
		return false, domainerrors.ErrInvalidInput
	}
	if !role.Valid() {
		return false, domainerrors.ErrInvalidRole
	}
	return uc.Repository.HasActiveRole(ctx, userID, eventID, role)
}

func (uc RoleQueryUseCase) ListUserRoles(
	ctx context.Context,
	userID string,
	eventID string,
) ([]entities.RoleGrant, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return uc.Repository.ListUserGrants(ctx, userID, strings.TrimSpace(eventID))
}
