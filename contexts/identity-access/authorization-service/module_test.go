package authorizationservice

import (
	"context"
	"errors"
	"testing"

	"arbiter/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "arbiter/contexts/identity-access/authorization-service/domain/errors"
	httptransport "arbiter/contexts/identity-access/authorization-service/transport/http"
)

func TestGrantAndRevokeRole(t *testing.T) {
	ctx := context.Background()
	module := NewInMemoryModule(nil)

	grant, err := module.Handler.GrantRoleHandler(ctx, "admin-1", httptransport.GrantRoleRequest{
		UserID:  "user-1",
		EventID: "event-1",
		Role:    string(entities.RoleDecisionMaker),
		Reason:  "program chair",
	})
	if err != nil {
		t.Fatalf("grant role failed: %v", err)
	}
	if grant.GrantID == "" || grant.GrantedBy != "admin-1" {
		t.Fatalf("expected populated grant, got %+v", grant)
	}

	has, err := module.Queries.HasRole(ctx, "user-1", "event-1", entities.RoleDecisionMaker)
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if !has {
		t.Fatalf("expected active decision maker role")
	}

	// Granting again returns the active grant instead of stacking a new one.
	again, err := module.Handler.GrantRoleHandler(ctx, "admin-2", httptransport.GrantRoleRequest{
		UserID:  "user-1",
		EventID: "event-1",
		Role:    string(entities.RoleDecisionMaker),
	})
	if err != nil {
		t.Fatalf("regrant role failed: %v", err)
	}
	if again.GrantID != grant.GrantID {
		t.Fatalf("expected idempotent grant, got %s and %s", grant.GrantID, again.GrantID)
	}

	revoked, err := module.Handler.RevokeRoleHandler(ctx, "admin-1", httptransport.RevokeRoleRequest{
		UserID:  "user-1",
		EventID: "event-1",
		Role:    string(entities.RoleDecisionMaker),
	})
	if err != nil {
		t.Fatalf("revoke role failed: %v", err)
	}
	if revoked.RevokedAt == "" {
		t.Fatalf("expected revoked_at to be set")
	}

	has, err = module.Queries.HasRole(ctx, "user-1", "event-1", entities.RoleDecisionMaker)
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if has {
		t.Fatalf("expected role revoked")
	}

	// Revoking an absent grant is an error, not a no-op.
	if _, err := module.Handler.RevokeRoleHandler(ctx, "admin-1", httptransport.RevokeRoleRequest{
		UserID:  "user-1",
		EventID: "event-1",
		Role:    string(entities.RoleDecisionMaker),
	}); !errors.Is(err, domainerrors.ErrGrantNotFound) {
		t.Fatalf("expected grant not found, got %v", err)
	}
}

func TestGrantRoleValidation(t *testing.T) {
	ctx := context.Background()
	module := NewInMemoryModule(nil)

	if _, err := module.Handler.GrantRoleHandler(ctx, "admin-1", httptransport.GrantRoleRequest{
		UserID:  "user-1",
		EventID: "event-1",
		Role:    "SUPERUSER",
	}); !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}

	if _, err := module.Handler.GrantRoleHandler(ctx, "admin-1", httptransport.GrantRoleRequest{
		UserID: "",
		Role:   string(entities.RoleReviewer),
	}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRolesScopedPerEvent(t *testing.T) {
	ctx := context.Background()
	module := NewInMemoryModule(nil)

	if _, err := module.Handler.GrantRoleHandler(ctx, "admin-1", httptransport.GrantRoleRequest{
		UserID:  "user-1",
		EventID: "event-1",
		Role:    string(entities.RoleReviewer),
	}); err != nil {
		t.Fatalf("grant role failed: %v", err)
	}

	has, err := module.Queries.HasRole(ctx, "user-1", "event-2", entities.RoleReviewer)
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if has {
		t.Fatalf("expected grant to be scoped to event-1")
	}

	roles, err := module.Handler.UserRolesHandler(ctx, "user-1", "event-1")
	if err != nil {
		t.Fatalf("user roles failed: %v", err)
	}
	if len(roles.Grants) != 1 || roles.Grants[0].Role != string(entities.RoleReviewer) {
		t.Fatalf("expected one reviewer grant, got %+v", roles.Grants)
	}
}
