package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "arbiter/contexts/identity-access/authorization-service/application"
	"arbiter/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "arbiter/contexts/identity-access/authorization-service/domain/errors"
	"arbiter/contexts/identity-access/authorization-service/ports"
)

// GrantRoleCommand contains transport-agnostic input for role assignment.
type GrantRoleCommand struct {
	UserID    string
	EventID   string
	Role      entities.Role
	GrantedBy string
	Reason    string
}

type RevokeRoleCommand struct {
	UserID    string
	EventID   string
	Role      entities.Role
	RevokedBy string
}

// RoleUseCase coordinates the role grant lifecycle within an event.
type RoleUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// GrantRole assigns the role to the user for the event. Granting an already
// active role is idempotent and returns the existing grant.
func (uc RoleUseCase) GrantRole(ctx context.Context, cmd GrantRoleCommand) (entities.RoleGrant, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	eventID := strings.TrimSpace(cmd.EventID)
	grantedBy := strings.TrimSpace(cmd.GrantedBy)
	if userID == "" || eventID == "" || grantedBy == "" {
		return entities.RoleGrant{}, domainerrors.ErrInvalidInput
	}
	if !cmd.Role.Valid() {
		return entities.RoleGrant{}, domainerrors.ErrInvalidRole
	}

	if existing, found, err := uc.Repository.GetActiveGrant(ctx, userID, eventID, cmd.Role); err != nil {
		return entities.RoleGrant{}, err
	} else if found {
		return existing, nil
	}

	grantID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.RoleGrant{}, err
	}
	grant := entities.RoleGrant{
		GrantID:   grantID,
		UserID:    userID,
		EventID:   eventID,
		Role:      cmd.Role,
		GrantedBy: grantedBy,
		Reason:    strings.TrimSpace(cmd.Reason),
		CreatedAt: uc.now(),
	}
	if err := uc.Repository.SaveGrant(ctx, grant); err != nil {
		return entities.RoleGrant{}, err
	}

	logger.Info("role granted",
		"event", "authz_role_granted",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", userID,
		"event_id", eventID,
		"role", string(cmd.Role),
		"granted_by", grantedBy,
	)
	return grant, nil
}

// RevokeRole removes the active grant for (user, event, role).
func (uc RoleUseCase) RevokeRole(ctx context.Context, cmd RevokeRoleCommand) (entities.RoleGrant, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	eventID := strings.TrimSpace(cmd.EventID)
	revokedBy := strings.TrimSpace(cmd.RevokedBy)
	if userID == "" || eventID == "" || revokedBy == "" {
		return entities.RoleGrant{}, domainerrors.ErrInvalidInput
	}
	if !cmd.Role.Valid() {
		return entities.RoleGrant{}, domainerrors.ErrInvalidRole
	}

	grant, found, err := uc.Repository.GetActiveGrant(ctx, userID, eventID, cmd.Role)
	if err != nil {
		return entities.RoleGrant{}, err
	}
	if !found {
		return entities.RoleGrant{}, domainerrors.ErrGrantNotFound
	}

	revoked, err := uc.Repository.RevokeGrant(ctx, grant.GrantID, uc.now())
	if err != nil {
		return entities.RoleGrant{}, err
	}

	logger.Info("role revoked",
		"event", "authz_role_revoked",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", userID,
		"event_id", eventID,
		"role", string(cmd.Role),
		"revoked_by", revokedBy,
	)
	return revoked, nil
}

func (uc RoleUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
