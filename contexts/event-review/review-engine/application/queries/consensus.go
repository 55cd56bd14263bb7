package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "arbiter/contexts/event-review/review-engine/application"
	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
	"arbiter/contexts/event-review/review-engine/domain/services"
	"arbiter/contexts/event-review/review-engine/ports"
)

// ConsensusData is the read model for the consensus view: all evaluations of
// the stage, the computed recommendation when quorum holds, and the decided
// consensus when one exists.
type ConsensusData struct {
	ApplicationID  string
	Stage          entities.Stage
	Evaluations    []entities.Evaluation
	CompletedCount int
	AssignedCount  int
	QuorumMet      bool
	Recommendation *services.ConsensusResult
	Consensus      *entities.Consensus
}

// ConsensusQueryUseCase serves the read side of the consensus flow. Reading
// is safe at any time: the aggregation is recomputed from persisted state
// and decides nothing.
type ConsensusQueryUseCase struct {
	Computer     application.ConsensusComputer
	Applications ports.ApplicationRepository
	Consensus    ports.ConsensusRepository
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// GetConsensusData returns the consensus view for an application+stage. An
// empty stage means the application's current stage. Below quorum the data
// still lists evaluations; only the recommendation is absent. While the
// consensus is undecided the computed snapshot is refreshed as a draft
// record so dashboards and the decide path see the same numbers.
func (uc ConsensusQueryUseCase) GetConsensusData(
	ctx context.Context,
	applicationID string,
	stage entities.Stage,
) (ConsensusData, error) {
	logger := application.ResolveLogger(uc.Logger)
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return ConsensusData{}, domainerrors.ErrInvalidInput
	}

	app, err := uc.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return ConsensusData{}, err
	}
	if stage == "" {
		stage = app.Stage
	}
	if !stage.Valid() {
		return ConsensusData{}, domainerrors.ErrInvalidInput
	}

	evaluations, err := uc.Computer.Evaluations.ListEvaluationsByStage(ctx, applicationID, stage)
	if err != nil {
		return ConsensusData{}, err
	}

	data := ConsensusData{
		ApplicationID: applicationID,
		Stage:         stage,
		Evaluations:   evaluations,
	}

	computation, err := uc.Computer.Compute(ctx, app, stage, false)
	data.CompletedCount = computation.CompletedCount
	data.AssignedCount = computation.AssignedCount
	switch {
	case err == nil:
		result := computation.Result
		data.QuorumMet = true
		data.Recommendation = &result
	case errors.Is(err, domainerrors.ErrInsufficientQuorum):
		// Below quorum is a normal read state, not a failure.
	default:
		return ConsensusData{}, err
	}

	consensus, found, err := uc.Consensus.GetConsensus(ctx, applicationID, stage)
	if err != nil {
		return ConsensusData{}, err
	}
	if found {
		data.Consensus = &consensus
	}

	if data.QuorumMet && (!found || !consensus.Decided) {
		if err := uc.refreshDraft(ctx, applicationID, stage, consensus, found, *data.Recommendation); err != nil {
			logger.Warn("consensus draft refresh failed",
				"event", "review_consensus_draft_refresh_failed",
				"module", "event-review/review-engine",
				"layer", "application",
				"application_id", applicationID,
				"stage", string(stage),
				"error", err.Error(),
			)
		}
	}
	return data, nil
}

func (uc ConsensusQueryUseCase) refreshDraft(
	ctx context.Context,
	applicationID string,
	stage entities.Stage,
	existing entities.Consensus,
	found bool,
	result services.ConsensusResult,
) error {
	now := uc.Clock.Now().UTC()
	draft := existing
	if !found {
		consensusID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		draft = entities.Consensus{
			ConsensusID:   consensusID,
			ApplicationID: applicationID,
			Stage:         stage,
			CreatedAt:     now,
		}
	}
	draft.ConsensusScore = result.Score
	draft.Divergence = result.Divergence
	draft.Recommendation = result.Recommendation
	draft.UpdatedAt = now
	return uc.Consensus.SaveDraftConsensus(ctx, draft)
}
