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

// DecideConsensusCommand turns the computed recommendation into the
// authoritative decision for the application's current stage.
type DecideConsensusCommand struct {
	ActorID         string
	ApplicationID   string
	Stage           entities.Stage
	FinalDecision   entities.Recommendation
	DiscussionNotes string
	QuorumOverride  bool
}

// DecisionUseCase owns the single authoritative write of the consensus flow.
// Deciding is single-writer per application+stage: of two concurrent decide
// calls exactly one succeeds, the other sees ErrAlreadyDecided.
type DecisionUseCase struct {
	Computer     application.ConsensusComputer
	Applications ports.ApplicationRepository
	Consensus    ports.ConsensusRepository
	Roles        ports.RoleVerifier
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// DecideConsensus records the final decision for the current stage. The
// computed recommendation is recomputed under quorum rules first; deviating
// from it requires discussion notes. When the application sits at the
// terminal stage, the decision also sets the application status and triggers
// the decision notification event.
func (uc DecisionUseCase) DecideConsensus(ctx context.Context, cmd DecideConsensusCommand) (entities.Consensus, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	if actorID == "" || applicationID == "" || !cmd.Stage.Valid() {
		return entities.Consensus{}, domainerrors.ErrInvalidInput
	}
	if !cmd.FinalDecision.DecidableOutcome() {
		return entities.Consensus{}, domainerrors.ErrInvalidDecision
	}

	app, err := uc.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return entities.Consensus{}, err
	}
	if app.ReviewClosed() {
		return entities.Consensus{}, domainerrors.ErrReviewClosed
	}
	if cmd.Stage != app.Stage {
		return entities.Consensus{}, domainerrors.ErrInvalidInput
	}
	if ok, err := uc.Roles.IsDecisionMaker(ctx, actorID, app.EventID); err != nil {
		return entities.Consensus{}, err
	} else if !ok {
		return entities.Consensus{}, domainerrors.ErrNotDecisionMaker
	}

	computation, err := uc.Computer.Compute(ctx, app, cmd.Stage, cmd.QuorumOverride)
	if err != nil {
		return entities.Consensus{}, err
	}

	notes := strings.TrimSpace(cmd.DiscussionNotes)
	if cmd.FinalDecision != computation.Result.Recommendation && notes == "" {
		return entities.Consensus{}, domainerrors.ErrDiscussionNotesRequired
	}

	now := uc.now()
	consensusID, err := uc.resolveConsensusID(ctx, applicationID, cmd.Stage)
	if err != nil {
		return entities.Consensus{}, err
	}
	decidedAt := now
	consensus := entities.Consensus{
		ConsensusID:     consensusID,
		ApplicationID:   applicationID,
		Stage:           cmd.Stage,
		ConsensusScore:  computation.Result.Score,
		Divergence:      computation.Result.Divergence,
		Recommendation:  computation.Result.Recommendation,
		FinalDecision:   cmd.FinalDecision,
		Decided:         true,
		DecidedBy:       actorID,
		DiscussionNotes: notes,
		DecidedAt:       &decidedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.Consensus.DecideConsensus(ctx, consensus); err != nil {
		return entities.Consensus{}, err
	}

	if err := appendReviewEvent(ctx, uc.Outbox, uc.IDGen, "consensus.decided", applicationID, now, map[string]any{
		"consensus_id":    consensus.ConsensusID,
		"stage":           string(consensus.Stage),
		"consensus_score": consensus.ConsensusScore,
		"recommendation":  string(consensus.Recommendation),
		"final_decision":  string(consensus.FinalDecision),
		"decided_by":      actorID,
		"overridden":      consensus.FinalDecision != consensus.Recommendation,
	}); err != nil {
		return entities.Consensus{}, err
	}

	if app.Stage.Terminal() {
		if err := uc.finalizeApplication(ctx, app, cmd.FinalDecision, now); err != nil {
			return entities.Consensus{}, err
		}
	}

	logger.Info("consensus decided",
		"event", "review_consensus_decided",
		"module", "event-review/review-engine",
		"layer", "application",
		"application_id", applicationID,
		"stage", string(cmd.Stage),
		"consensus_score", consensus.ConsensusScore,
		"recommendation", string(consensus.Recommendation),
		"final_decision", string(consensus.FinalDecision),
		"decided_by", actorID,
	)
	return consensus, nil
}

// finalizeApplication maps the terminal-stage decision onto the application
// status. Setting the status freezes every evaluation and consensus record
// for the application.
func (uc DecisionUseCase) finalizeApplication(
	ctx context.Context,
	app entities.Application,
	decision entities.Recommendation,
	now time.Time,
) error {
	switch decision {
	case entities.RecommendationAccept:
		app.Status = entities.StatusAccepted
	case entities.RecommendationReject:
		app.Status = entities.StatusRejected
	case entities.RecommendationWaitlist:
		app.Status = entities.StatusWaitlisted
	default:
		return domainerrors.ErrInvalidDecision
	}
	app.UpdatedAt = now
	if err := uc.Applications.SaveApplication(ctx, app); err != nil {
		return err
	}
	return appendReviewEvent(ctx, uc.Outbox, uc.IDGen, "application.decided", app.ApplicationID, now, map[string]any{
		"application_id": app.ApplicationID,
		"event_id":       app.EventID,
		"applicant_id":   app.ApplicantID,
		"status":         string(app.Status),
	})
}

func (uc DecisionUseCase) resolveConsensusID(
	ctx context.Context,
	applicationID string,
	stage entities.Stage,
) (string, error) {
	if existing, found, err := uc.Consensus.GetConsensus(ctx, applicationID, stage); err != nil {
		return "", err
	} else if found {
		return existing.ConsensusID, nil
	}
	return uc.IDGen.NewID(ctx)
}

func (uc DecisionUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
