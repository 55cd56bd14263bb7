package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"arbiter/contexts/identity-access/authorization-service/application/commands"
	"arbiter/contexts/identity-access/authorization-service/application/queries"
	"arbiter/contexts/identity-access/authorization-service/domain/entities"
	httptransport "arbiter/contexts/identity-access/authorization-service/transport/http"
)

type Handler struct {
	Roles   commands.RoleUseCase
	Queries queries.RoleQueryUseCase
	Logger  *slog.Logger
}

func (h Handler) GrantRoleHandler(
	ctx context.Context,
	adminID string,
	req httptransport.GrantRoleRequest,
) (httptransport.RoleGrantResponse, error) {
	grant, err := h.Roles.GrantRole(ctx, commands.GrantRoleCommand{
		UserID:    req.UserID,
		EventID:   req.EventID,
		Role:      entities.Role(req.Role),
		GrantedBy: adminID,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.RoleGrantResponse{}, err
	}
	return mapGrant(grant), nil
}

func (h Handler) RevokeRoleHandler(
	ctx context.Context,
	adminID string,
	req httptransport.RevokeRoleRequest,
) (httptransport.RoleGrantResponse, error) {
	grant, err := h.Roles.RevokeRole(ctx, commands.RevokeRoleCommand{
		UserID:    req.UserID,
		EventID:   req.EventID,
		Role:      entities.Role(req.Role),
		RevokedBy: adminID,
	})
	if err != nil {
		return httptransport.RoleGrantResponse{}, err
	}
	return mapGrant(grant), nil
}

func (h Handler) UserRolesHandler(
	ctx context.Context,
	userID string,
	eventID string,
) (httptransport.UserRolesResponse, error) {
	grants, err := h.Queries.ListUserRoles(ctx, userID, eventID)
	if err != nil {
		return httptransport.UserRolesResponse{}, err
	}
	resp := httptransport.UserRolesResponse{
		UserID: userID,
		Grants: make([]httptransport.RoleGrantResponse, 0, len(grants)),
	}
	for _, grant := range grants {
		resp.Grants = append(resp.Grants, mapGrant(grant))
	}
	return resp, nil
}

func mapGrant(grant entities.RoleGrant) httptransport.RoleGrantResponse {
	revokedAt := ""
	if grant.RevokedAt != nil {
		revokedAt = grant.RevokedAt.UTC().Format(time.RFC3339)
	}
	return httptransport.RoleGrantResponse{
		GrantID:   grant.GrantID,
		UserID:    grant.UserID,
		EventID:   grant.EventID,
		Role:      string(grant.Role),
		GrantedBy: grant.GrantedBy,
		Reason:    grant.Reason,
		RevokedAt: revokedAt,
	}
}
