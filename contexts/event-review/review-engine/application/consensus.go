package application

import (
	"context"

	"arbiter/contexts/event-review/review-engine/domain/entities"
	"arbiter/contexts/event-review/review-engine/domain/services"
	"arbiter/contexts/event-review/review-engine/ports"
)

// ConsensusComputer assembles aggregation inputs from persisted state and
// runs the pure aggregation. Both the decide command and the consensus query
// share it so recommendation math has exactly one code path.
type ConsensusComputer struct {
	Evaluations ports.EvaluationRepository
	Assignments ports.AssignmentRepository
	Catalog     ports.CriteriaCatalog
	Registry    ports.CompetencyRegistry
	Policy      services.ConsensusPolicy
}

// ConsensusComputation is a recommendation plus the quorum facts behind it.
type ConsensusComputation struct {
	Result         services.ConsensusResult
	CompletedCount int
	AssignedCount  int
}

// Compute aggregates all COMPLETED evaluations for the application+stage.
// Reviewer weights key off the category carrying the most rubric weight in
// that stage; the registry resolves missing competency records to the
// default, so this never fails on absent data.
func (c ConsensusComputer) Compute(
	ctx context.Context,
	app entities.Application,
	stage entities.Stage,
	quorumOverride bool,
) (ConsensusComputation, error) {
	criteria, err := c.Catalog.GetCriteria(ctx, app.EventID, stage)
	if err != nil {
		return ConsensusComputation{}, err
	}
	category := services.DominantCategory(criteria)

	evaluations, err := c.Evaluations.ListEvaluationsByStage(ctx, app.ApplicationID, stage)
	if err != nil {
		return ConsensusComputation{}, err
	}
	assignments, err := c.Assignments.ListAssignments(ctx, app.ApplicationID, stage)
	if err != nil {
		return ConsensusComputation{}, err
	}

	inputs := make([]services.EvaluationInput, 0, len(evaluations))
	for _, evaluation := range evaluations {
		if !evaluation.Completed() {
			continue
		}
		weight, err := c.Registry.GetWeight(ctx, evaluation.ReviewerID, category)
		if err != nil {
			return ConsensusComputation{}, err
		}
		inputs = append(inputs, services.EvaluationInput{
			EvaluationID:   evaluation.EvaluationID,
			ReviewerID:     evaluation.ReviewerID,
			OverallScore:   evaluation.OverallScore,
			Confidence:     evaluation.Confidence,
			ReviewerWeight: weight,
		})
	}

	result, err := services.Aggregate(inputs, len(assignments), quorumOverride, c.Policy)
	if err != nil {
		return ConsensusComputation{
			CompletedCount: len(inputs),
			AssignedCount:  len(assignments),
		}, err
	}
	return ConsensusComputation{
		Result:         result,
		CompletedCount: len(inputs),
		AssignedCount:  len(assignments),
	}, nil
}
