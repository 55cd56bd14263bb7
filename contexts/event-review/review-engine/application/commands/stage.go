package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "arbiter/contexts/event-review/review-engine/application"
	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
	"arbiter/contexts/event-review/review-engine/ports"
)

// AdvanceStageCommand moves an application to the next review stage.
// Override skips the decided-consensus guard; it must be justified and is
// always logged and audited.
type AdvanceStageCommand struct {
	ActorID        string
	ApplicationID  string
	Override       bool
	OverrideReason string
}

// ReopenStageCommand moves an application back to an earlier stage. This is
// an explicit admin action recorded as a new audited state entry, never a
// silent rewind.
type ReopenStageCommand struct {
	ActorID       string
	ApplicationID string
	Stage         entities.Stage
	Reason        string
}

// StageUseCase drives the application through the review pipeline, gating
// forward movement on a decided consensus for the current stage.
type StageUseCase struct {
	Applications ports.ApplicationRepository
	Consensus    ports.ConsensusRepository
	Roles        ports.RoleVerifier
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// AdvanceStage moves the application forward one stage. A merely recommended
// consensus does not satisfy the guard: the consensus for the current stage
// must be decided, or an authorized override supplied with a reason.
func (uc StageUseCase) AdvanceStage(ctx context.Context, cmd AdvanceStageCommand) (entities.Application, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	if actorID == "" || applicationID == "" {
		return entities.Application{}, domainerrors.ErrInvalidInput
	}
	if cmd.Override && strings.TrimSpace(cmd.OverrideReason) == "" {
		return entities.Application{}, domainerrors.ErrOverrideReasonRequired
	}

	app, err := uc.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return entities.Application{}, err
	}
	if app.ReviewClosed() {
		return entities.Application{}, domainerrors.ErrReviewClosed
	}
	if ok, err := uc.Roles.IsDecisionMaker(ctx, actorID, app.EventID); err != nil {
		return entities.Application{}, err
	} else if !ok {
		return entities.Application{}, domainerrors.ErrNotDecisionMaker
	}

	next, ok := entities.NextStage(app.Stage)
	if !ok {
		return entities.Application{}, domainerrors.ErrStageTerminal
	}

	consensus, found, err := uc.Consensus.GetConsensus(ctx, applicationID, app.Stage)
	if err != nil {
		return entities.Application{}, err
	}
	decided := found && consensus.Decided
	if !decided && !cmd.Override {
		return entities.Application{}, domainerrors.ErrConsensusNotDecided
	}
	if !decided {
		logger.Warn("stage advanced without decided consensus",
			"event", "review_stage_override",
			"module", "event-review/review-engine",
			"layer", "application",
			"application_id", applicationID,
			"stage", string(app.Stage),
			"actor_id", actorID,
			"reason", strings.TrimSpace(cmd.OverrideReason),
		)
	}

	now := uc.now()
	previous := app.Stage
	app.Stage = next
	app.UpdatedAt = now
	if err := uc.Applications.SaveApplication(ctx, app); err != nil {
		return entities.Application{}, err
	}

	if err := appendReviewEvent(ctx, uc.Outbox, uc.IDGen, "application.stage_advanced", applicationID, now, map[string]any{
		"from_stage":      string(previous),
		"to_stage":        string(next),
		"advanced_by":     actorID,
		"override":        !decided,
		"override_reason": strings.TrimSpace(cmd.OverrideReason),
	}); err != nil {
		return entities.Application{}, err
	}

	logger.Info("stage advanced",
		"event", "review_stage_advanced",
		"module", "event-review/review-engine",
		"layer", "application",
		"application_id", applicationID,
		"from_stage", string(previous),
		"to_stage", string(next),
		"advanced_by", actorID,
	)
	return app, nil
}

// ReopenStage rewinds the application to an earlier stage for re-review.
// Allowed only while the review is open; the action is audited through the
// outbox like any other state entry.
func (uc StageUseCase) ReopenStage(ctx context.Context, cmd ReopenStageCommand) (entities.Application, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	reason := strings.TrimSpace(cmd.Reason)
	if actorID == "" || applicationID == "" || !cmd.Stage.Valid() {
		return entities.Application{}, domainerrors.ErrInvalidInput
	}
	if reason == "" {
		return entities.Application{}, domainerrors.ErrOverrideReasonRequired
	}

	app, err := uc.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return entities.Application{}, err
	}
	if app.ReviewClosed() {
		return entities.Application{}, domainerrors.ErrReviewClosed
	}
	if ok, err := uc.Roles.IsDecisionMaker(ctx, actorID, app.EventID); err != nil {
		return entities.Application{}, err
	} else if !ok {
		return entities.Application{}, domainerrors.ErrNotDecisionMaker
	}
	if cmd.Stage.Ordinal() >= app.Stage.Ordinal() {
		return entities.Application{}, domainerrors.ErrInvalidReopenTarget
	}

	now := uc.now()
	previous := app.Stage
	app.Stage = cmd.Stage
	app.UpdatedAt = now
	if err := uc.Applications.SaveApplication(ctx, app); err != nil {
		return entities.Application{}, err
	}

	if err := appendReviewEvent(ctx, uc.Outbox, uc.IDGen, "application.stage_reopened", applicationID, now, map[string]any{
		"from_stage":  string(previous),
		"to_stage":    string(cmd.Stage),
		"reopened_by": actorID,
		"reason":      reason,
	}); err != nil {
		return entities.Application{}, err
	}

	logger.Info("stage reopened",
		"event", "review_stage_reopened",
		"module", "event-review/review-engine",
		"layer", "application",
		"application_id", applicationID,
		"from_stage", string(previous),
		"to_stage", string(cmd.Stage),
		"reopened_by", actorID,
		"reason", reason,
	)
	return app, nil
}

func (uc StageUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
