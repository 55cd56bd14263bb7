package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "arbiter/contexts/event-review/review-engine/application"
	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
	"arbiter/contexts/event-review/review-engine/domain/services"
	"arbiter/contexts/event-review/review-engine/ports"
)

// StartEvaluationCommand opens (or returns) the reviewer's scorecard for the
// application's current stage.
type StartEvaluationCommand struct {
	ReviewerID    string
	ApplicationID string
}

// SubmitScoreCommand is the write-model input for one criterion score.
// ExpectedVersion carries the version the client last read; a stale value is
// rejected rather than silently merged.
type SubmitScoreCommand struct {
	ReviewerID      string
	EvaluationID    string
	CriterionID     string
	Value           float64
	Reasoning       string
	ExpectedVersion int64
}

type CompleteEvaluationCommand struct {
	ReviewerID      string
	EvaluationID    string
	Confidence      int
	Recommendation  entities.Recommendation
	ExpectedVersion int64
}

// ReopenEvaluationCommand reverts a completed evaluation to DRAFT. Decision
// makers only; every reopen is audited through the outbox.
type ReopenEvaluationCommand struct {
	ActorID      string
	EvaluationID string
	Reason       string
}

// EvaluationUseCase orchestrates the reviewer-owned evaluation lifecycle:
// draft creation, per-criterion scoring under optimistic concurrency, and
// completion once the rubric is fully scored.
type EvaluationUseCase struct {
	Evaluations  ports.EvaluationRepository
	Applications ports.ApplicationRepository
	Assignments  ports.AssignmentRepository
	Catalog      ports.CriteriaCatalog
	Roles        ports.RoleVerifier
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// StartEvaluation creates the DRAFT evaluation for (application, reviewer,
// current stage). It is idempotent: a second start returns the existing
// record. Only reviewers assigned to the stage may start one.
func (uc EvaluationUseCase) StartEvaluation(ctx context.Context, cmd StartEvaluationCommand) (entities.Evaluation, error) {
	logger := application.ResolveLogger(uc.Logger)
	reviewerID := strings.TrimSpace(cmd.ReviewerID)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	if reviewerID == "" || applicationID == "" {
		return entities.Evaluation{}, domainerrors.ErrInvalidInput
	}

	app, err := uc.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return entities.Evaluation{}, err
	}
	if app.ReviewClosed() {
		return entities.Evaluation{}, domainerrors.ErrReviewClosed
	}
	if err := uc.requireAssignment(ctx, applicationID, app.Stage, reviewerID); err != nil {
		return entities.Evaluation{}, err
	}

	if existing, found, err := uc.Evaluations.GetEvaluationByIdentity(ctx, applicationID, reviewerID, app.Stage); err != nil {
		return entities.Evaluation{}, err
	} else if found {
		return existing, nil
	}

	now := uc.now()
	evaluationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Evaluation{}, err
	}
	evaluation := entities.Evaluation{
		EvaluationID:  evaluationID,
		ApplicationID: applicationID,
		ReviewerID:    reviewerID,
		Stage:         app.Stage,
		Status:        entities.EvaluationStatusDraft,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.Evaluations.SaveEvaluation(ctx, evaluation); err != nil {
		return entities.Evaluation{}, err
	}
	evaluation.Version = 1

	logger.Info("evaluation started",
		"event", "review_evaluation_started",
		"module", "event-review/review-engine",
		"layer", "application",
		"evaluation_id", evaluation.EvaluationID,
		"application_id", applicationID,
		"reviewer_id", reviewerID,
		"stage", string(app.Stage),
	)
	return evaluation, nil
}

// SubmitScore upserts one criterion score on a DRAFT evaluation owned by the
// caller. Concurrent autosaves are serialized by the version check: a stale
// ExpectedVersion fails with ErrVersionConflict and the client must retry
// with fresh data.
func (uc EvaluationUseCase) SubmitScore(ctx context.Context, cmd SubmitScoreCommand) (entities.Evaluation, error) {
	logger := application.ResolveLogger(uc.Logger)
	reviewerID := strings.TrimSpace(cmd.ReviewerID)
	evaluationID := strings.TrimSpace(cmd.EvaluationID)
	criterionID := strings.TrimSpace(cmd.CriterionID)
	if reviewerID == "" || evaluationID == "" || criterionID == "" {
		return entities.Evaluation{}, domainerrors.ErrInvalidInput
	}
	if err := services.ValidateScoreValue(cmd.Value); err != nil {
		logger.Warn("score rejected",
			"event", "review_score_out_of_range",
			"module", "event-review/review-engine",
			"layer", "application",
			"evaluation_id", evaluationID,
			"criterion_id", criterionID,
			"value", cmd.Value,
		)
		return entities.Evaluation{}, err
	}

	evaluation, app, err := uc.loadOwnedDraft(ctx, evaluationID, reviewerID)
	if err != nil {
		return entities.Evaluation{}, err
	}
	if cmd.ExpectedVersion != evaluation.Version {
		return entities.Evaluation{}, domainerrors.ErrVersionConflict
	}

	criteria, err := uc.Catalog.GetCriteria(ctx, app.EventID, evaluation.Stage)
	if err != nil {
		return entities.Evaluation{}, err
	}
	if !criterionInRubric(criteria, criterionID) {
		return entities.Evaluation{}, domainerrors.ErrCriterionNotFound
	}

	now := uc.now()
	score := entities.Score{
		EvaluationID: evaluationID,
		CriterionID:  criterionID,
		Value:        cmd.Value,
		Reasoning:    strings.TrimSpace(cmd.Reasoning),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Keep a provisional overall on the draft once the rubric is fully
	// scored; the authoritative value is computed at completion.
	scores, err := uc.Evaluations.ListScores(ctx, evaluationID)
	if err != nil {
		return entities.Evaluation{}, err
	}
	merged := mergeScore(scores, score)
	if services.ScoresComplete(merged, criteria) {
		overall, err := services.ComputeOverallScore(merged, criteria)
		if err != nil {
			return entities.Evaluation{}, err
		}
		evaluation.OverallScore = overall
	}

	// Version check and score write are one atomic step: a stale save must
	// not leave its score behind.
	evaluation.UpdatedAt = now
	if err := uc.Evaluations.SaveEvaluationScore(ctx, evaluation, score); err != nil {
		return entities.Evaluation{}, err
	}
	evaluation.Version++

	logger.Info("score submitted",
		"event", "review_score_submitted",
		"module", "event-review/review-engine",
		"layer", "application",
		"evaluation_id", evaluationID,
		"criterion_id", criterionID,
		"reviewer_id", reviewerID,
		"version", evaluation.Version,
	)
	return evaluation, nil
}

// CompleteEvaluation finalizes the scorecard. Every rubric criterion must be
// scored; the overall score is derived here and the evaluation becomes
// immutable afterwards.
func (uc EvaluationUseCase) CompleteEvaluation(ctx context.Context, cmd CompleteEvaluationCommand) (entities.Evaluation, error) {
	logger := application.ResolveLogger(uc.Logger)
	reviewerID := strings.TrimSpace(cmd.ReviewerID)
	evaluationID := strings.TrimSpace(cmd.EvaluationID)
	if reviewerID == "" || evaluationID == "" {
		return entities.Evaluation{}, domainerrors.ErrInvalidInput
	}
	if cmd.Confidence < 1 || cmd.Confidence > 5 {
		return entities.Evaluation{}, domainerrors.ErrInvalidConfidence
	}
	if cmd.Recommendation != "" && !cmd.Recommendation.DecidableOutcome() {
		return entities.Evaluation{}, domainerrors.ErrInvalidInput
	}

	evaluation, app, err := uc.loadOwnedDraft(ctx, evaluationID, reviewerID)
	if err != nil {
		return entities.Evaluation{}, err
	}
	if cmd.ExpectedVersion != evaluation.Version {
		return entities.Evaluation{}, domainerrors.ErrVersionConflict
	}

	criteria, err := uc.Catalog.GetCriteria(ctx, app.EventID, evaluation.Stage)
	if err != nil {
		return entities.Evaluation{}, err
	}
	scores, err := uc.Evaluations.ListScores(ctx, evaluationID)
	if err != nil {
		return entities.Evaluation{}, err
	}
	overall, err := services.ComputeOverallScore(scores, criteria)
	if err != nil {
		return entities.Evaluation{}, err
	}

	now := uc.now()
	completedAt := now
	evaluation.Status = entities.EvaluationStatusCompleted
	evaluation.OverallScore = overall
	evaluation.Confidence = cmd.Confidence
	evaluation.Recommendation = cmd.Recommendation
	evaluation.CompletedAt = &completedAt
	evaluation.UpdatedAt = now
	if err := uc.Evaluations.SaveEvaluation(ctx, evaluation); err != nil {
		return entities.Evaluation{}, err
	}
	evaluation.Version++

	if err := uc.appendEvent(ctx, "evaluation.completed", evaluation.ApplicationID, now, map[string]any{
		"evaluation_id": evaluation.EvaluationID,
		"reviewer_id":   evaluation.ReviewerID,
		"stage":         string(evaluation.Stage),
		"overall_score": evaluation.OverallScore,
		"confidence":    evaluation.Confidence,
	}); err != nil {
		return entities.Evaluation{}, err
	}

	logger.Info("evaluation completed",
		"event", "review_evaluation_completed",
		"module", "event-review/review-engine",
		"layer", "application",
		"evaluation_id", evaluation.EvaluationID,
		"application_id", evaluation.ApplicationID,
		"reviewer_id", evaluation.ReviewerID,
		"overall_score", evaluation.OverallScore,
		"confidence", evaluation.Confidence,
	)
	return evaluation, nil
}

// ReopenEvaluation reverts a COMPLETED evaluation to DRAFT so the reviewer
// can rescore. Requires the decision-maker capability and a reason; the
// action is recorded as an audit event.
func (uc EvaluationUseCase) ReopenEvaluation(ctx context.Context, cmd ReopenEvaluationCommand) (entities.Evaluation, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	evaluationID := strings.TrimSpace(cmd.EvaluationID)
	reason := strings.TrimSpace(cmd.Reason)
	if actorID == "" || evaluationID == "" {
		return entities.Evaluation{}, domainerrors.ErrInvalidInput
	}
	if reason == "" {
		return entities.Evaluation{}, domainerrors.ErrOverrideReasonRequired
	}

	evaluation, err := uc.Evaluations.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return entities.Evaluation{}, err
	}
	app, err := uc.Applications.GetApplication(ctx, evaluation.ApplicationID)
	if err != nil {
		return entities.Evaluation{}, err
	}
	if app.ReviewClosed() {
		return entities.Evaluation{}, domainerrors.ErrReviewClosed
	}
	if err := uc.requireDecisionMaker(ctx, actorID, app.EventID); err != nil {
		return entities.Evaluation{}, err
	}
	if !evaluation.Completed() {
		return entities.Evaluation{}, domainerrors.ErrEvaluationNotCompleted
	}

	now := uc.now()
	evaluation.Status = entities.EvaluationStatusDraft
	evaluation.CompletedAt = nil
	evaluation.UpdatedAt = now
	if err := uc.Evaluations.SaveEvaluation(ctx, evaluation); err != nil {
		return entities.Evaluation{}, err
	}
	evaluation.Version++

	if err := uc.appendEvent(ctx, "evaluation.reopened", evaluation.ApplicationID, now, map[string]any{
		"evaluation_id": evaluation.EvaluationID,
		"reviewer_id":   evaluation.ReviewerID,
		"stage":         string(evaluation.Stage),
		"reopened_by":   actorID,
		"reason":        reason,
	}); err != nil {
		return entities.Evaluation{}, err
	}

	logger.Info("evaluation reopened",
		"event", "review_evaluation_reopened",
		"module", "event-review/review-engine",
		"layer", "application",
		"evaluation_id", evaluation.EvaluationID,
		"application_id", evaluation.ApplicationID,
		"reopened_by", actorID,
		"reason", reason,
	)
	return evaluation, nil
}

func (uc EvaluationUseCase) loadOwnedDraft(
	ctx context.Context,
	evaluationID string,
	reviewerID string,
) (entities.Evaluation, entities.Application, error) {
	evaluation, err := uc.Evaluations.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return entities.Evaluation{}, entities.Application{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(evaluation.ReviewerID), reviewerID) {
		return entities.Evaluation{}, entities.Application{}, domainerrors.ErrNotAssignedReviewer
	}
	app, err := uc.Applications.GetApplication(ctx, evaluation.ApplicationID)
	if err != nil {
		return entities.Evaluation{}, entities.Application{}, err
	}
	if app.ReviewClosed() {
		return entities.Evaluation{}, entities.Application{}, domainerrors.ErrReviewClosed
	}
	if evaluation.Completed() {
		return entities.Evaluation{}, entities.Application{}, domainerrors.ErrEvaluationCompleted
	}
	return evaluation, app, nil
}

func (uc EvaluationUseCase) requireAssignment(
	ctx context.Context,
	applicationID string,
	stage entities.Stage,
	reviewerID string,
) error {
	assignments, err := uc.Assignments.ListAssignments(ctx, applicationID, stage)
	if err != nil {
		return err
	}
	for _, assignment := range assignments {
		if strings.EqualFold(strings.TrimSpace(assignment.ReviewerID), reviewerID) {
			return nil
		}
	}
	return domainerrors.ErrNotAssignedReviewer
}

func (uc EvaluationUseCase) requireDecisionMaker(ctx context.Context, userID string, eventID string) error {
	ok, err := uc.Roles.IsDecisionMaker(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrNotDecisionMaker
	}
	return nil
}

func (uc EvaluationUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc EvaluationUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	applicationID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	return appendReviewEvent(ctx, uc.Outbox, uc.IDGen, eventType, applicationID, occurredAt, data)
}

func mergeScore(scores []entities.Score, score entities.Score) []entities.Score {
	merged := make([]entities.Score, 0, len(scores)+1)
	replaced := false
	for _, existing := range scores {
		if existing.CriterionID == score.CriterionID {
			merged = append(merged, score)
			replaced = true
			continue
		}
		merged = append(merged, existing)
	}
	if !replaced {
		merged = append(merged, score)
	}
	return merged
}

func criterionInRubric(criteria []entities.Criterion, criterionID string) bool {
	for _, criterion := range criteria {
		if criterion.CriterionID == criterionID {
			return true
		}
	}
	return false
}
