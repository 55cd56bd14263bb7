package services

import (
	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
)

const (
	ScoreMin = 1.0
	ScoreMax = 10.0
)

// ValidateScoreValue enforces the fixed closed score range.
func ValidateScoreValue(value float64) error {
	if value < ScoreMin || value > ScoreMax {
		return domainerrors.ErrScoreOutOfRange
	}
	return nil
}

// ComputeOverallScore turns raw per-criterion scores into a single
// weight-normalized evaluation score:
//
//	overall = Σ(score_i × weight_i) / Σ weight_i
//
// Every criterion in the rubric must have a score; a missing one means the
// evaluation is incomplete and must not be completed. The absolute weight
// scale does not matter because weights are normalized here.
func ComputeOverallScore(scores []entities.Score, criteria []entities.Criterion) (float64, error) {
	if len(criteria) == 0 {
		return 0, domainerrors.ErrNoCriteriaConfigured
	}
	byCriterion := make(map[string]entities.Score, len(scores))
	for _, score := range scores {
		if err := ValidateScoreValue(score.Value); err != nil {
			return 0, err
		}
		byCriterion[score.CriterionID] = score
	}

	var weightedSum float64
	var totalWeight float64
	for _, criterion := range criteria {
		if criterion.Weight <= 0 {
			return 0, domainerrors.ErrInvalidInput
		}
		score, ok := byCriterion[criterion.CriterionID]
		if !ok {
			return 0, domainerrors.ErrMissingRequiredCriterion
		}
		weightedSum += score.Value * criterion.Weight
		totalWeight += criterion.Weight
	}
	return weightedSum / totalWeight, nil
}

// ScoresComplete reports whether every rubric criterion has a stored score.
func ScoresComplete(scores []entities.Score, criteria []entities.Criterion) bool {
	if len(criteria) == 0 {
		return false
	}
	present := make(map[string]bool, len(scores))
	for _, score := range scores {
		present[score.CriterionID] = true
	}
	for _, criterion := range criteria {
		if !present[criterion.CriterionID] {
			return false
		}
	}
	return true
}

// DominantCategory picks the category covering the largest share of rubric
// weight. Reviewer competency weighting keys off this category for the stage.
// Ties break on lexical order so the result stays deterministic.
func DominantCategory(criteria []entities.Criterion) string {
	weights := make(map[string]float64, len(criteria))
	for _, criterion := range criteria {
		weights[criterion.Category] += criterion.Weight
	}
	var best string
	var bestWeight float64
	for category, weight := range weights {
		if weight > bestWeight || (weight == bestWeight && (best == "" || category < best)) {
			best = category
			bestWeight = weight
		}
	}
	return best
}
