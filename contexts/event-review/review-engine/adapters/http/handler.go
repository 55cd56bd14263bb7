package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"arbiter/contexts/event-review/review-engine/application/commands"
	"arbiter/contexts/event-review/review-engine/application/queries"
	"arbiter/contexts/event-review/review-engine/domain/entities"
	httptransport "arbiter/contexts/event-review/review-engine/transport/http"
)

type Handler struct {
	Evaluations commands.EvaluationUseCase
	Decisions   commands.DecisionUseCase
	Stages      commands.StageUseCase
	Consensus   queries.ConsensusQueryUseCase
	Logger      *slog.Logger
}

func (h Handler) StartEvaluationHandler(
	ctx context.Context,
	reviewerID string,
	req httptransport.StartEvaluationRequest,
) (httptransport.EvaluationResponse, error) {
	evaluation, err := h.Evaluations.StartEvaluation(ctx, commands.StartEvaluationCommand{
		ReviewerID:    reviewerID,
		ApplicationID: req.ApplicationID,
	})
	if err != nil {
		return httptransport.EvaluationResponse{}, err
	}
	return mapEvaluation(evaluation), nil
}

func (h Handler) SubmitScoreHandler(
	ctx context.Context,
	reviewerID string,
	evaluationID string,
	req httptransport.SubmitScoreRequest,
) (httptransport.EvaluationResponse, error) {
	evaluation, err := h.Evaluations.SubmitScore(ctx, commands.SubmitScoreCommand{
		ReviewerID:      reviewerID,
		EvaluationID:    evaluationID,
		CriterionID:     req.CriterionID,
		Value:           req.Value,
		Reasoning:       req.Reasoning,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return httptransport.EvaluationResponse{}, err
	}
	return mapEvaluation(evaluation), nil
}

func (h Handler) CompleteEvaluationHandler(
	ctx context.Context,
	reviewerID string,
	evaluationID string,
	req httptransport.CompleteEvaluationRequest,
) (httptransport.EvaluationResponse, error) {
	evaluation, err := h.Evaluations.CompleteEvaluation(ctx, commands.CompleteEvaluationCommand{
		ReviewerID:      reviewerID,
		EvaluationID:    evaluationID,
		Confidence:      req.Confidence,
		Recommendation:  entities.Recommendation(req.Recommendation),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return httptransport.EvaluationResponse{}, err
	}
	return mapEvaluation(evaluation), nil
}

func (h Handler) ReopenEvaluationHandler(
	ctx context.Context,
	actorID string,
	evaluationID string,
	req httptransport.ReopenEvaluationRequest,
) (httptransport.EvaluationResponse, error) {
	evaluation, err := h.Evaluations.ReopenEvaluation(ctx, commands.ReopenEvaluationCommand{
		ActorID:      actorID,
		EvaluationID: evaluationID,
		Reason:       req.Reason,
	})
	if err != nil {
		return httptransport.EvaluationResponse{}, err
	}
	return mapEvaluation(evaluation), nil
}

func (h Handler) ConsensusDataHandler(
	ctx context.Context,
	applicationID string,
	stage string,
) (httptransport.ConsensusDataResponse, error) {
	data, err := h.Consensus.GetConsensusData(ctx, applicationID, entities.Stage(stage))
	if err != nil {
		return httptransport.ConsensusDataResponse{}, err
	}

	resp := httptransport.ConsensusDataResponse{
		ApplicationID:  data.ApplicationID,
		Stage:          string(data.Stage),
		CompletedCount: data.CompletedCount,
		AssignedCount:  data.AssignedCount,
		QuorumMet:      data.QuorumMet,
		Evaluations:    make([]httptransport.EvaluationResponse, 0, len(data.Evaluations)),
	}
	for _, evaluation := range data.Evaluations {
		resp.Evaluations = append(resp.Evaluations, mapEvaluation(evaluation))
	}
	if data.Recommendation != nil {
		inputs := make([]httptransport.WeightedInputItem, 0, len(data.Recommendation.Inputs))
		for _, input := range data.Recommendation.Inputs {
			inputs = append(inputs, httptransport.WeightedInputItem{
				EvaluationID: input.EvaluationID,
				ReviewerID:   input.ReviewerID,
				OverallScore: input.OverallScore,
				Weight:       input.Weight,
			})
		}
		resp.Recommendation = &httptransport.RecommendationView{
			ConsensusScore: data.Recommendation.Score,
			Divergence:     data.Recommendation.Divergence,
			Recommendation: string(data.Recommendation.Recommendation),
			Inputs:         inputs,
		}
	}
	if data.Consensus != nil {
		view := mapConsensusView(*data.Consensus)
		resp.Consensus = &view
	}
	return resp, nil
}

func (h Handler) DecideConsensusHandler(
	ctx context.Context,
	actorID string,
	applicationID string,
	req httptransport.DecideConsensusRequest,
) (httptransport.ConsensusResponse, error) {
	stage := entities.Stage(req.Stage)
	if req.Stage == "" {
		app, err := h.Stages.Applications.GetApplication(ctx, applicationID)
		if err != nil {
			return httptransport.ConsensusResponse{}, err
		}
		stage = app.Stage
	}
	consensus, err := h.Decisions.DecideConsensus(ctx, commands.DecideConsensusCommand{
		ActorID:         actorID,
		ApplicationID:   applicationID,
		Stage:           stage,
		FinalDecision:   entities.Recommendation(req.FinalDecision),
		DiscussionNotes: req.DiscussionNotes,
		QuorumOverride:  req.QuorumOverride,
	})
	if err != nil {
		return httptransport.ConsensusResponse{}, err
	}
	return httptransport.ConsensusResponse{
		ConsensusView: mapConsensusView(consensus),
		ApplicationID: consensus.ApplicationID,
		Stage:         string(consensus.Stage),
	}, nil
}

func (h Handler) AdvanceStageHandler(
	ctx context.Context,
	actorID string,
	applicationID string,
	req httptransport.AdvanceStageRequest,
) (httptransport.ApplicationResponse, error) {
	app, err := h.Stages.AdvanceStage(ctx, commands.AdvanceStageCommand{
		ActorID:        actorID,
		ApplicationID:  applicationID,
		Override:       req.Override,
		OverrideReason: req.OverrideReason,
	})
	if err != nil {
		return httptransport.ApplicationResponse{}, err
	}
	return mapApplication(app), nil
}

func (h Handler) ReopenStageHandler(
	ctx context.Context,
	actorID string,
	applicationID string,
	req httptransport.ReopenStageRequest,
) (httptransport.ApplicationResponse, error) {
	app, err := h.Stages.ReopenStage(ctx, commands.ReopenStageCommand{
		ActorID:       actorID,
		ApplicationID: applicationID,
		Stage:         entities.Stage(req.Stage),
		Reason:        req.Reason,
	})
	if err != nil {
		return httptransport.ApplicationResponse{}, err
	}
	return mapApplication(app), nil
}

func mapEvaluation(evaluation entities.Evaluation) httptransport.EvaluationResponse {
	completedAt := ""
	if evaluation.CompletedAt != nil {
		completedAt = evaluation.CompletedAt.UTC().Format(time.RFC3339)
	}
	return httptransport.EvaluationResponse{
		EvaluationID:   evaluation.EvaluationID,
		ApplicationID:  evaluation.ApplicationID,
		ReviewerID:     evaluation.ReviewerID,
		Stage:          string(evaluation.Stage),
		Status:         string(evaluation.Status),
		OverallScore:   evaluation.OverallScore,
		Confidence:     evaluation.Confidence,
		Recommendation: string(evaluation.Recommendation),
		CompletedAt:    completedAt,
		Version:        evaluation.Version,
	}
}

func mapConsensusView(consensus entities.Consensus) httptransport.ConsensusView {
	decidedAt := ""
	if consensus.DecidedAt != nil {
		decidedAt = consensus.DecidedAt.UTC().Format(time.RFC3339)
	}
	return httptransport.ConsensusView{
		ConsensusID:     consensus.ConsensusID,
		ConsensusScore:  consensus.ConsensusScore,
		Divergence:      consensus.Divergence,
		Recommendation:  string(consensus.Recommendation),
		FinalDecision:   string(consensus.FinalDecision),
		Decided:         consensus.Decided,
		DecidedBy:       consensus.DecidedBy,
		DiscussionNotes: consensus.DiscussionNotes,
		DecidedAt:       decidedAt,
	}
}

func mapApplication(app entities.Application) httptransport.ApplicationResponse {
	return httptransport.ApplicationResponse{
		ApplicationID: app.ApplicationID,
		EventID:       app.EventID,
		ApplicantID:   app.ApplicantID,
		Stage:         string(app.Stage),
		Status:        string(app.Status),
	}
}
