package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"arbiter/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "arbiter/contexts/identity-access/authorization-service/domain/errors"
	"arbiter/contexts/identity-access/authorization-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory grant repository used by tests and local wiring.
type Store struct {
	mu     sync.RWMutex
	grants map[string]entities.RoleGrant
}

func NewStore() *Store {
	return &Store{
		grants: make(map[string]entities.RoleGrant),
	}
}

func (s *Store) SaveGrant(_ context.Context, grant entities.RoleGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[strings.TrimSpace(grant.GrantID)] = grant
	return nil
}

func (s *Store) GetActiveGrant(
	_ context.Context,
	userID string,
	eventID string,
	role entities.Role,
) (entities.RoleGrant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, grant := range s.grants {
		if grantMatches(grant, userID, eventID, role) && grant.Active() {
			return grant, true, nil
		}
	}
	return entities.RoleGrant{}, false, nil
}

func (s *Store) RevokeGrant(_ context.Context, grantID string, revokedAt time.Time) (entities.RoleGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grant, ok := s.grants[strings.TrimSpace(grantID)]
	if !ok || !grant.Active() {
		return entities.RoleGrant{}, domainerrors.ErrGrantNotFound
	}
	revoked := revokedAt.UTC()
	grant.RevokedAt = &revoked
	s.grants[strings.TrimSpace(grantID)] = grant
	return grant, nil
}

func (s *Store) ListUserGrants(_ context.Context, userID string, eventID string) ([]entities.RoleGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.RoleGrant, 0)
	for _, grant := range s.grants {
		if !strings.EqualFold(grant.UserID, strings.TrimSpace(userID)) {
			continue
		}
		if eventID != "" && grant.EventID != strings.TrimSpace(eventID) {
			continue
		}
		items = append(items, grant)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].GrantID < items[j].GrantID
	})
	return items, nil
}

func (s *Store) HasActiveRole(
	ctx context.Context,
	userID string,
	eventID string,
	role entities.Role,
) (bool, error) {
	_, found, err := s.GetActiveGrant(ctx, userID, eventID, role)
	return found, err
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func grantMatches(grant entities.RoleGrant, userID string, eventID string, role entities.Role) bool {
	return strings.EqualFold(grant.UserID, strings.TrimSpace(userID)) &&
		grant.EventID == strings.TrimSpace(eventID) &&
		grant.Role == role
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
