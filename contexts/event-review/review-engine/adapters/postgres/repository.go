package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
	"arbiter/contexts/event-review/review-engine/ports"
	"arbiter/internal/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
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

// ApplicationRepository

func (r *Repository) GetApplication(ctx context.Context, applicationID string) (entities.Application, error) {
	var row applicationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(applicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, r.logError("review_repo_get_application_failed", err,
			"application_id", strings.TrimSpace(applicationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveApplication(ctx context.Context, app entities.Application) error {
	row := applicationModelFromEntity(app)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"event_id":     row.EventID,
			"applicant_id": row.ApplicantID,
			"stage":        row.Stage,
			"status":       row.Status,
			"updated_at":   row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("review_repo_save_application_failed", create.Error,
			"application_id", strings.TrimSpace(app.ApplicationID),
		)
	}
	return nil
}

// EvaluationRepository

func (r *Repository) GetEvaluation(ctx context.Context, evaluationID string) (entities.Evaluation, error) {
	var row evaluationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(evaluationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Evaluation{}, domainerrors.ErrEvaluationNotFound
		}
		return entities.Evaluation{}, r.logError("review_repo_get_evaluation_failed", err,
			"evaluation_id", strings.TrimSpace(evaluationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetEvaluationByIdentity(
	ctx context.Context,
	applicationID string,
	reviewerID string,
	stage entities.Stage,
) (entities.Evaluation, bool, error) {
	var row evaluationModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		Where("reviewer_id = ?", strings.TrimSpace(reviewerID)).
		Where("stage = ?", string(stage)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Evaluation{}, false, nil
		}
		return entities.Evaluation{}, false, r.logError("review_repo_get_evaluation_by_identity_failed", err,
			"application_id", strings.TrimSpace(applicationID),
			"reviewer_id", strings.TrimSpace(reviewerID),
			"stage", string(stage),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListEvaluationsByStage(
	ctx context.Context,
	applicationID string,
	stage entities.Stage,
) ([]entities.Evaluation, error) {
	var rows []evaluationModel
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		Where("stage = ?", string(stage)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("review_repo_list_evaluations_failed", err,
			"application_id", strings.TrimSpace(applicationID),
			"stage", string(stage),
		)
	}
	items := make([]entities.Evaluation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// SaveEvaluation implements the optimistic write described on the port.
// Version 0 inserts the row; a unique violation on the identity index means
// a concurrent create won. Any other version is an UPDATE guarded by the
// version column, and zero affected rows means the caller's read is stale.
func (r *Repository) SaveEvaluation(ctx context.Context, evaluation entities.Evaluation) error {
	row := evaluationModelFromEntity(evaluation)
	if evaluation.Version == 0 {
		row.Version = 1
		create := r.db.WithContext(ctx).Create(&row)
		if create.Error != nil {
			if isUniqueViolation(create.Error) {
				return domainerrors.ErrVersionConflict
			}
			return r.logError("review_repo_create_evaluation_failed", create.Error,
				"evaluation_id", row.ID,
				"application_id", row.ApplicationID,
			)
		}
		return nil
	}

	if err := updateEvaluationGuarded(r.db.WithContext(ctx), row, evaluation.Version); err != nil {
		if errors.Is(err, domainerrors.ErrVersionConflict) || errors.Is(err, domainerrors.ErrEvaluationNotFound) {
			return err
		}
		return r.logError("review_repo_update_evaluation_failed", err,
			"evaluation_id", row.ID,
		)
	}
	return nil
}

// updateEvaluationGuarded is the version compare-and-swap: the UPDATE is
// gated on the version column, zero affected rows means either a missing row
// or a stale caller.
func updateEvaluationGuarded(tx *gorm.DB, row evaluationModel, version int64) error {
	result := tx.
		Model(&evaluationModel{}).
		Where("id = ?", row.ID).
		Where("version = ?", version).
		Updates(map[string]any{
			"status":         row.Status,
			"overall_score":  row.OverallScore,
			"confidence":     row.Confidence,
			"recommendation": row.Recommendation,
			"completed_at":   row.CompletedAt,
			"version":        version + 1,
			"updated_at":     row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.
			Model(&evaluationModel{}).
			Where("id = ?", row.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrEvaluationNotFound
		}
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) ListScores(ctx context.Context, evaluationID string) ([]entities.Score, error) {
	var rows []scoreModel
	if err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", strings.TrimSpace(evaluationID)).
		Order("criterion_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("review_repo_list_scores_failed", err,
			"evaluation_id", strings.TrimSpace(evaluationID),
		)
	}
	items := make([]entities.Score, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// SaveEvaluationScore runs the evaluation compare-and-swap and the score
// upsert in one transaction. A stale version rolls the score back with it:
// the losing autosave leaves no data behind.
func (r *Repository) SaveEvaluationScore(
	ctx context.Context,
	evaluation entities.Evaluation,
	score entities.Score,
) error {
	row := evaluationModelFromEntity(evaluation)
	scoreRow := scoreModelFromEntity(score)
	err := db.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := updateEvaluationGuarded(tx, row, evaluation.Version); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "evaluation_id"}, {Name: "criterion_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      scoreRow.Value,
				"reasoning":  scoreRow.Reasoning,
				"updated_at": scoreRow.UpdatedAt,
			}),
		}).Create(&scoreRow).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrVersionConflict) || errors.Is(err, domainerrors.ErrEvaluationNotFound) {
			return err
		}
		return r.logError("review_repo_save_evaluation_score_failed", err,
			"evaluation_id", row.ID,
			"criterion_id", scoreRow.CriterionID,
		)
	}
	return nil
}

// ConsensusRepository

func (r *Repository) GetConsensus(
	ctx context.Context,
	applicationID string,
	stage entities.Stage,
) (entities.Consensus, bool, error) {
	var row consensusModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		Where("stage = ?", string(stage)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Consensus{}, false, nil
		}
		return entities.Consensus{}, false, r.logError("review_repo_get_consensus_failed", err,
			"application_id", strings.TrimSpace(applicationID),
			"stage", string(stage),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SaveDraftConsensus(ctx context.Context, consensus entities.Consensus) error {
	row := consensusModelFromEntity(consensus)
	row.Decided = false
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "application_id"}, {Name: "stage"}},
		Where:   clause.Where{Exprs: []clause.Expression{gorm.Expr("consensus_decisions.decided = ?", false)}},
		DoUpdates: clause.Assignments(map[string]any{
			"consensus_score": row.ConsensusScore,
			"divergence":      row.Divergence,
			"recommendation":  row.Recommendation,
			"updated_at":      row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("review_repo_save_draft_consensus_failed", create.Error,
			"application_id", row.ApplicationID,
			"stage", row.Stage,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAlreadyDecided
	}
	return nil
}

// DecideConsensus upgrades the draft row to a decided record. The WHERE on
// decided=false makes the decide a single-writer operation: the first commit
// wins and every later attempt sees zero affected rows.
func (r *Repository) DecideConsensus(ctx context.Context, consensus entities.Consensus) error {
	row := consensusModelFromEntity(consensus)
	row.Decided = true
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}, {Name: "stage"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("review_repo_decide_consensus_insert_failed", create.Error,
			"application_id", row.ApplicationID,
			"stage", row.Stage,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&consensusModel{}).
		Where("application_id = ?", row.ApplicationID).
		Where("stage = ?", row.Stage).
		Where("decided = ?", false).
		Updates(map[string]any{
			"consensus_score":  row.ConsensusScore,
			"divergence":       row.Divergence,
			"recommendation":   row.Recommendation,
			"final_decision":   row.FinalDecision,
			"decided":          true,
			"decided_by":       row.DecidedBy,
			"discussion_notes": row.DiscussionNotes,
			"decided_at":       row.DecidedAt,
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("review_repo_decide_consensus_update_failed", result.Error,
			"application_id", row.ApplicationID,
			"stage", row.Stage,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAlreadyDecided
	}
	return nil
}

// CriteriaCatalog

func (r *Repository) GetCriteria(ctx context.Context, eventID string, stage entities.Stage) ([]entities.Criterion, error) {
	var rows []criterionModel
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Where("stage = ?", string(stage)).
		Order("display_order ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("review_repo_get_criteria_failed", err,
			"event_id", strings.TrimSpace(eventID),
			"stage", string(stage),
		)
	}
	if len(rows) == 0 {
		return nil, domainerrors.ErrNoCriteriaConfigured
	}
	items := make([]entities.Criterion, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// CompetencyRegistry

func (r *Repository) GetWeight(ctx context.Context, reviewerID string, category string) (float64, error) {
	var row competencyModel
	err := r.db.WithContext(ctx).
		Where("reviewer_id = ?", strings.TrimSpace(reviewerID)).
		Where("category = ?", strings.TrimSpace(category)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.DefaultCompetencyWeight, nil
		}
		return 0, r.logError("review_repo_get_weight_failed", err,
			"reviewer_id", strings.TrimSpace(reviewerID),
			"category", strings.TrimSpace(category),
		)
	}
	if row.BaseWeight <= 0 {
		return ports.DefaultCompetencyWeight, nil
	}
	return row.BaseWeight, nil
}

// AssignmentRepository

func (r *Repository) ListAssignments(
	ctx context.Context,
	applicationID string,
	stage entities.Stage,
) ([]entities.ReviewerAssignment, error) {
	var rows []assignmentModel
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		Where("stage = ?", string(stage)).
		Order("reviewer_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("review_repo_list_assignments_failed", err,
			"application_id", strings.TrimSpace(applicationID),
			"stage", string(stage),
		)
	}
	items := make([]entities.ReviewerAssignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveAssignment(ctx context.Context, assignment entities.ReviewerAssignment) error {
	row := assignmentModel{
		ApplicationID: strings.TrimSpace(assignment.ApplicationID),
		Stage:         string(assignment.Stage),
		ReviewerID:    strings.TrimSpace(assignment.ReviewerID),
		AssignedBy:    strings.TrimSpace(assignment.AssignedBy),
		AssignedAt:    assignment.AssignedAt.UTC(),
	}
	if row.AssignedAt.IsZero() {
		row.AssignedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}, {Name: "stage"}, {Name: "reviewer_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("review_repo_save_assignment_failed", create.Error,
			"application_id", row.ApplicationID,
			"reviewer_id", row.ReviewerID,
		)
	}
	return nil
}

// Outbox

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("review_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("review_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("review_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("review_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("review_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("review_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("review_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrVersionConflict
	}
	return true, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "event-review/review-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("review repository operation failed", fields...)
	return err
}

type applicationModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	EventID     string    `gorm:"column:event_id"`
	ApplicantID string    `gorm:"column:applicant_id"`
	Stage       string    `gorm:"column:stage"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (applicationModel) TableName() string {
	return "applications"
}

func applicationModelFromEntity(app entities.Application) applicationModel {
	row := applicationModel{
		ID:          strings.TrimSpace(app.ApplicationID),
		EventID:     strings.TrimSpace(app.EventID),
		ApplicantID: strings.TrimSpace(app.ApplicantID),
		Stage:       string(app.Stage),
		Status:      string(app.Status),
		CreatedAt:   app.CreatedAt.UTC(),
		UpdatedAt:   app.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m applicationModel) toEntity() entities.Application {
	return entities.Application{
		ApplicationID: m.ID,
		EventID:       m.EventID,
		ApplicantID:   m.ApplicantID,
		Stage:         entities.Stage(m.Stage),
		Status:        entities.ApplicationStatus(m.Status),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type evaluationModel struct {
	ID             string     `gorm:"column:id;primaryKey"`
	ApplicationID  string     `gorm:"column:application_id;uniqueIndex:idx_evaluations_identity"`
	ReviewerID     string     `gorm:"column:reviewer_id;uniqueIndex:idx_evaluations_identity"`
	Stage          string     `gorm:"column:stage;uniqueIndex:idx_evaluations_identity"`
	Status         string     `gorm:"column:status"`
	OverallScore   float64    `gorm:"column:overall_score"`
	Confidence     int        `gorm:"column:confidence"`
	Recommendation string     `gorm:"column:recommendation"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
	Version        int64      `gorm:"column:version"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (evaluationModel) TableName() string {
	return "evaluations"
}

func evaluationModelFromEntity(evaluation entities.Evaluation) evaluationModel {
	row := evaluationModel{
		ID:             strings.TrimSpace(evaluation.EvaluationID),
		ApplicationID:  strings.TrimSpace(evaluation.ApplicationID),
		ReviewerID:     strings.TrimSpace(evaluation.ReviewerID),
		Stage:          string(evaluation.Stage),
		Status:         string(evaluation.Status),
		OverallScore:   evaluation.OverallScore,
		Confidence:     evaluation.Confidence,
		Recommendation: string(evaluation.Recommendation),
		CompletedAt:    normalizeOptionalTime(evaluation.CompletedAt),
		Version:        evaluation.Version,
		CreatedAt:      evaluation.CreatedAt.UTC(),
		UpdatedAt:      evaluation.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m evaluationModel) toEntity() entities.Evaluation {
	return entities.Evaluation{
		EvaluationID:   m.ID,
		ApplicationID:  m.ApplicationID,
		ReviewerID:     m.ReviewerID,
		Stage:          entities.Stage(m.Stage),
		Status:         entities.EvaluationStatus(m.Status),
		OverallScore:   m.OverallScore,
		Confidence:     m.Confidence,
		Recommendation: entities.Recommendation(m.Recommendation),
		CompletedAt:    normalizeOptionalTime(m.CompletedAt),
		Version:        m.Version,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type scoreModel struct {
	EvaluationID string    `gorm:"column:evaluation_id;primaryKey"`
	CriterionID  string    `gorm:"column:criterion_id;primaryKey"`
	Value        float64   `gorm:"column:value"`
	Reasoning    string    `gorm:"column:reasoning"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (scoreModel) TableName() string {
	return "evaluation_scores"
}

func scoreModelFromEntity(score entities.Score) scoreModel {
	row := scoreModel{
		EvaluationID: strings.TrimSpace(score.EvaluationID),
		CriterionID:  strings.TrimSpace(score.CriterionID),
		Value:        score.Value,
		Reasoning:    strings.TrimSpace(score.Reasoning),
		CreatedAt:    score.CreatedAt.UTC(),
		UpdatedAt:    score.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m scoreModel) toEntity() entities.Score {
	return entities.Score{
		EvaluationID: m.EvaluationID,
		CriterionID:  m.CriterionID,
		Value:        m.Value,
		Reasoning:    m.Reasoning,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type consensusModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	ApplicationID   string     `gorm:"column:application_id;uniqueIndex:idx_consensus_identity"`
	Stage           string     `gorm:"column:stage;uniqueIndex:idx_consensus_identity"`
	ConsensusScore  float64    `gorm:"column:consensus_score"`
	Divergence      float64    `gorm:"column:divergence"`
	Recommendation  string     `gorm:"column:recommendation"`
	FinalDecision   string     `gorm:"column:final_decision"`
	Decided         bool       `gorm:"column:decided"`
	DecidedBy       string     `gorm:"column:decided_by"`
	DiscussionNotes string     `gorm:"column:discussion_notes"`
	DecidedAt       *time.Time `gorm:"column:decided_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (consensusModel) TableName() string {
	return "consensus_decisions"
}

func consensusModelFromEntity(consensus entities.Consensus) consensusModel {
	row := consensusModel{
		ID:              strings.TrimSpace(consensus.ConsensusID),
		ApplicationID:   strings.TrimSpace(consensus.ApplicationID),
		Stage:           string(consensus.Stage),
		ConsensusScore:  consensus.ConsensusScore,
		Divergence:      consensus.Divergence,
		Recommendation:  string(consensus.Recommendation),
		FinalDecision:   string(consensus.FinalDecision),
		Decided:         consensus.Decided,
		DecidedBy:       strings.TrimSpace(consensus.DecidedBy),
		DiscussionNotes: strings.TrimSpace(consensus.DiscussionNotes),
		DecidedAt:       normalizeOptionalTime(consensus.DecidedAt),
		CreatedAt:       consensus.CreatedAt.UTC(),
		UpdatedAt:       consensus.UpdatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m consensusModel) toEntity() entities.Consensus {
	return entities.Consensus{
		ConsensusID:     m.ID,
		ApplicationID:   m.ApplicationID,
		Stage:           entities.Stage(m.Stage),
		ConsensusScore:  m.ConsensusScore,
		Divergence:      m.Divergence,
		Recommendation:  entities.Recommendation(m.Recommendation),
		FinalDecision:   entities.Recommendation(m.FinalDecision),
		Decided:         m.Decided,
		DecidedBy:       m.DecidedBy,
		DiscussionNotes: m.DiscussionNotes,
		DecidedAt:       normalizeOptionalTime(m.DecidedAt),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type criterionModel struct {
	ID       string  `gorm:"column:id;primaryKey"`
	EventID  string  `gorm:"column:event_id"`
	Stage    string  `gorm:"column:stage"`
	Name     string  `gorm:"column:name"`
	Category string  `gorm:"column:category"`
	Weight   float64 `gorm:"column:weight"`
	Order    int     `gorm:"column:display_order"`
}

func (criterionModel) TableName() string {
	return "review_criteria"
}

func (m criterionModel) toEntity() entities.Criterion {
	return entities.Criterion{
		CriterionID: m.ID,
		EventID:     m.EventID,
		Stage:       entities.Stage(m.Stage),
		Name:        m.Name,
		Category:    m.Category,
		Weight:      m.Weight,
		Order:       m.Order,
	}
}

type competencyModel struct {
	ReviewerID      string    `gorm:"column:reviewer_id;primaryKey"`
	Category        string    `gorm:"column:category;primaryKey"`
	CompetencyLevel int       `gorm:"column:competency_level"`
	BaseWeight      float64   `gorm:"column:base_weight"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (competencyModel) TableName() string {
	return "reviewer_competencies"
}

type assignmentModel struct {
	ApplicationID string    `gorm:"column:application_id;primaryKey"`
	Stage         string    `gorm:"column:stage;primaryKey"`
	ReviewerID    string    `gorm:"column:reviewer_id;primaryKey"`
	AssignedBy    string    `gorm:"column:assigned_by"`
	AssignedAt    time.Time `gorm:"column:assigned_at"`
}

func (assignmentModel) TableName() string {
	return "reviewer_assignments"
}

func (m assignmentModel) toEntity() entities.ReviewerAssignment {
	return entities.ReviewerAssignment{
		ApplicationID: m.ApplicationID,
		Stage:         entities.Stage(m.Stage),
		ReviewerID:    m.ReviewerID,
		AssignedBy:    m.AssignedBy,
		AssignedAt:    m.AssignedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "review_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "review_event_dedup"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ApplicationRepository = (*Repository)(nil)
var _ ports.EvaluationRepository = (*Repository)(nil)
var _ ports.ConsensusRepository = (*Repository)(nil)
var _ ports.CriteriaCatalog = (*Repository)(nil)
var _ ports.CompetencyRegistry = (*Repository)(nil)
var _ ports.AssignmentRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
