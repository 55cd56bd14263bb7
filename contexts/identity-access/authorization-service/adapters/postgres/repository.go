package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"arbiter/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "arbiter/contexts/identity-access/authorization-service/domain/errors"
	"arbiter/contexts/identity-access/authorization-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) SaveGrant(ctx context.Context, grant entities.RoleGrant) error {
	row := grantModelFromEntity(grant)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("authz_repo_save_grant_failed", create.Error,
			"grant_id", row.ID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) GetActiveGrant(
	ctx context.Context,
	userID string,
	eventID string,
	role entities.Role,
) (entities.RoleGrant, bool, error) {
	var row grantModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Where("role = ?", string(role)).
		Where("revoked_at IS NULL").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RoleGrant{}, false, nil
		}
		return entities.RoleGrant{}, false, r.logError("authz_repo_get_active_grant_failed", err,
			"user_id", strings.TrimSpace(userID),
			"event_id", strings.TrimSpace(eventID),
			"role", string(role),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) RevokeGrant(ctx context.Context, grantID string, revokedAt time.Time) (entities.RoleGrant, error) {
	result := r.db.WithContext(ctx).
		Model(&grantModel{}).
		Where("id = ?", strings.TrimSpace(grantID)).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt.UTC())
	if result.Error != nil {
		return entities.RoleGrant{}, r.logError("authz_repo_revoke_grant_failed", result.Error,
			"grant_id", strings.TrimSpace(grantID),
		)
	}
	if result.RowsAffected == 0 {
		return entities.RoleGrant{}, domainerrors.ErrGrantNotFound
	}

	var row grantModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(grantID)).
		First(&row).Error; err != nil {
		return entities.RoleGrant{}, r.logError("authz_repo_revoke_grant_load_failed", err,
			"grant_id", strings.TrimSpace(grantID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListUserGrants(ctx context.Context, userID string, eventID string) ([]entities.RoleGrant, error) {
	tx := r.db.WithContext(ctx).Model(&grantModel{}).
		Where("user_id = ?", strings.TrimSpace(userID))
	if strings.TrimSpace(eventID) != "" {
		tx = tx.Where("event_id = ?", strings.TrimSpace(eventID))
	}
	var rows []grantModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("authz_repo_list_user_grants_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	items := make([]entities.RoleGrant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) HasActiveRole(
	ctx context.Context,
	userID string,
	eventID string,
	role entities.Role,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&grantModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Where("role = ?", string(role)).
		Where("revoked_at IS NULL").
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("authz_repo_has_active_role_failed", err,
			"user_id", strings.TrimSpace(userID),
			"event_id", strings.TrimSpace(eventID),
			"role", string(role),
		)
	}
	return count > 0, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/authorization-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("authorization repository operation failed", fields...)
	return err
}

type grantModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	UserID    string     `gorm:"column:user_id"`
	EventID   string     `gorm:"column:event_id"`
	Role      string     `gorm:"column:role"`
	GrantedBy string     `gorm:"column:granted_by"`
	Reason    string     `gorm:"column:reason"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
}

func (grantModel) TableName() string {
	return "role_grants"
}

func grantModelFromEntity(grant entities.RoleGrant) grantModel {
	row := grantModel{
		ID:        strings.TrimSpace(grant.GrantID),
		UserID:    strings.TrimSpace(grant.UserID),
		EventID:   strings.TrimSpace(grant.EventID),
		Role:      string(grant.Role),
		GrantedBy: strings.TrimSpace(grant.GrantedBy),
		Reason:    strings.TrimSpace(grant.Reason),
		CreatedAt: grant.CreatedAt.UTC(),
	}
	if grant.RevokedAt != nil {
		revoked := grant.RevokedAt.UTC()
		row.RevokedAt = &revoked
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m grantModel) toEntity() entities.RoleGrant {
	grant := entities.RoleGrant{
		GrantID:   m.ID,
		UserID:    m.UserID,
		EventID:   m.EventID,
		Role:      entities.Role(m.Role),
		GrantedBy: m.GrantedBy,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt.UTC(),
	}
	if m.RevokedAt != nil {
		revoked := m.RevokedAt.UTC()
		grant.RevokedAt = &revoked
	}
	return grant
}

var _ ports.Repository = (*Repository)(nil)
