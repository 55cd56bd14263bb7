package services

import (
	"math"
	"sort"

	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
)

// ConsensusPolicy carries the tunable constants of consensus aggregation.
// All values come from configuration, never hard-coded call sites.
type ConsensusPolicy struct {
	AcceptThreshold     float64
	RejectThreshold     float64
	DivergenceThreshold float64
	MinQuorum           int
	ConfidenceFloor     float64
	ConfidenceCeiling   float64
}

// DefaultPolicy returns the documented defaults used when configuration is
// absent (tests, in-memory wiring).
func DefaultPolicy() ConsensusPolicy {
	return ConsensusPolicy{
		AcceptThreshold:     7.0,
		RejectThreshold:     4.0,
		DivergenceThreshold: 2.0,
		MinQuorum:           2,
		ConfidenceFloor:     0.5,
		ConfidenceCeiling:   1.5,
	}
}

// ConfidenceFactor maps self-reported confidence (1–5) linearly onto
// [ConfidenceFloor, ConfidenceCeiling]. Low-confidence reviews still count,
// just less. Out-of-range input is clamped.
func (p ConsensusPolicy) ConfidenceFactor(confidence int) float64 {
	if confidence < 1 {
		confidence = 1
	}
	if confidence > 5 {
		confidence = 5
	}
	span := p.ConfidenceCeiling - p.ConfidenceFloor
	return p.ConfidenceFloor + span*float64(confidence-1)/4.0
}

// EvaluationInput is one completed evaluation flattened for aggregation.
// ReviewerWeight is already resolved by the competency registry, including
// its default for reviewers without a competency record.
type EvaluationInput struct {
	EvaluationID   string
	ReviewerID     string
	OverallScore   float64
	Confidence     int
	ReviewerWeight float64
}

// WeightedInput snapshots the effective weight applied to one evaluation, so
// a decided consensus can be audited back to its inputs.
type WeightedInput struct {
	EvaluationID string
	ReviewerID   string
	OverallScore float64
	Weight       float64
}

type ConsensusResult struct {
	Score          float64
	Divergence     float64
	Recommendation entities.Recommendation
	Inputs         []WeightedInput
}

// Aggregate combines completed evaluations into a consensus score and
// recommendation. It is a pure function: identical inputs always produce the
// identical result, and recomputation has no side effects.
//
// Quorum: without an override every assigned reviewer must have completed;
// with an authorized override the configured minimum suffices. Below quorum
// the aggregation refuses with ErrInsufficientQuorum instead of returning a
// partial number.
//
// Divergence: when the spread of overall scores exceeds the configured
// threshold the recommendation is forced to NEEDS_DISCUSSION regardless of
// the mean. Disagreement must surface, not be averaged away.
func Aggregate(
	inputs []EvaluationInput,
	assigned int,
	quorumOverride bool,
	policy ConsensusPolicy,
) (ConsensusResult, error) {
	if quorumOverride {
		if len(inputs) < policy.MinQuorum {
			return ConsensusResult{}, domainerrors.ErrInsufficientQuorum
		}
	} else if assigned == 0 || len(inputs) < assigned {
		return ConsensusResult{}, domainerrors.ErrInsufficientQuorum
	}

	weighted := make([]WeightedInput, 0, len(inputs))
	var weightedSum float64
	var totalWeight float64
	for _, input := range inputs {
		weight := input.ReviewerWeight * policy.ConfidenceFactor(input.Confidence)
		weighted = append(weighted, WeightedInput{
			EvaluationID: input.EvaluationID,
			ReviewerID:   input.ReviewerID,
			OverallScore: input.OverallScore,
			Weight:       weight,
		})
		weightedSum += input.OverallScore * weight
		totalWeight += weight
	}
	if totalWeight <= 0 {
		return ConsensusResult{}, domainerrors.ErrInvalidInput
	}
	sort.Slice(weighted, func(i, j int) bool {
		return weighted[i].EvaluationID < weighted[j].EvaluationID
	})

	score := weightedSum / totalWeight
	divergence := scoreSpread(inputs)

	recommendation := entities.RecommendationWaitlist
	switch {
	case score >= policy.AcceptThreshold:
		recommendation = entities.RecommendationAccept
	case score <= policy.RejectThreshold:
		recommendation = entities.RecommendationReject
	}
	if divergence > policy.DivergenceThreshold {
		recommendation = entities.RecommendationNeedsDiscussion
	}

	return ConsensusResult{
		Score:          score,
		Divergence:     divergence,
		Recommendation: recommendation,
		Inputs:         weighted,
	}, nil
}

// scoreSpread is the unweighted population standard deviation of overall
// scores. Weighting is deliberately ignored here: two reviewers far apart is
// a disagreement even when one carries little weight.
func scoreSpread(inputs []EvaluationInput) float64 {
	if len(inputs) < 2 {
		return 0
	}
	var sum float64
	for _, input := range inputs {
		sum += input.OverallScore
	}
	mean := sum / float64(len(inputs))

	var variance float64
	for _, input := range inputs {
		delta := input.OverallScore - mean
		variance += delta * delta
	}
	return math.Sqrt(variance / float64(len(inputs)))
}
