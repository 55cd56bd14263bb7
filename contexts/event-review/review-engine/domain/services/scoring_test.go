package services

import (
	"errors"
	"math"
	"testing"

	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
)

func TestComputeOverallScoreWeightNormalized(t *testing.T) {
	criteria := []entities.Criterion{
		{CriterionID: "c-1", Category: "technical", Weight: 0.5},
		{CriterionID: "c-2", Category: "business", Weight: 0.3},
		{CriterionID: "c-3", Category: "presentation", Weight: 0.2},
	}
	scores := []entities.Score{
		{CriterionID: "c-1", Value: 8},
		{CriterionID: "c-2", Value: 6},
		{CriterionID: "c-3", Value: 9},
	}

	overall, err := ComputeOverallScore(scores, criteria)
	if err != nil {
		t.Fatalf("compute overall failed: %v", err)
	}
	if math.Abs(overall-7.6) > 1e-9 {
		t.Fatalf("expected overall 7.6, got %f", overall)
	}
}

func TestComputeOverallScoreWeightScaleIrrelevant(t *testing.T) {
	unit := []entities.Criterion{
		{CriterionID: "c-1", Weight: 0.5},
		{CriterionID: "c-2", Weight: 0.5},
	}
	scaled := []entities.Criterion{
		{CriterionID: "c-1", Weight: 5},
		{CriterionID: "c-2", Weight: 5},
	}
	scores := []entities.Score{
		{CriterionID: "c-1", Value: 7},
		{CriterionID: "c-2", Value: 4},
	}

	first, err := ComputeOverallScore(scores, unit)
	if err != nil {
		t.Fatalf("compute overall failed: %v", err)
	}
	second, err := ComputeOverallScore(scores, scaled)
	if err != nil {
		t.Fatalf("compute overall failed: %v", err)
	}
	if math.Abs(first-second) > 1e-9 {
		t.Fatalf("expected scale-invariant overall, got %f and %f", first, second)
	}
}

func TestComputeOverallScoreMissingCriterion(t *testing.T) {
	criteria := []entities.Criterion{
		{CriterionID: "c-1", Weight: 0.5},
		{CriterionID: "c-2", Weight: 0.5},
	}
	scores := []entities.Score{
		{CriterionID: "c-1", Value: 8},
	}

	if _, err := ComputeOverallScore(scores, criteria); !errors.Is(err, domainerrors.ErrMissingRequiredCriterion) {
		t.Fatalf("expected missing criterion error, got %v", err)
	}
}

func TestComputeOverallScoreRejectsEmptyRubric(t *testing.T) {
	if _, err := ComputeOverallScore(nil, nil); !errors.Is(err, domainerrors.ErrNoCriteriaConfigured) {
		t.Fatalf("expected no criteria error, got %v", err)
	}
}

func TestValidateScoreValueRange(t *testing.T) {
	if err := ValidateScoreValue(1); err != nil {
		t.Fatalf("expected minimum score to be valid: %v", err)
	}
	if err := ValidateScoreValue(10); err != nil {
		t.Fatalf("expected maximum score to be valid: %v", err)
	}
	if err := ValidateScoreValue(0.5); !errors.Is(err, domainerrors.ErrScoreOutOfRange) {
		t.Fatalf("expected out of range error, got %v", err)
	}
	if err := ValidateScoreValue(10.5); !errors.Is(err, domainerrors.ErrScoreOutOfRange) {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestScoresComplete(t *testing.T) {
	criteria := []entities.Criterion{
		{CriterionID: "c-1", Weight: 1},
		{CriterionID: "c-2", Weight: 1},
	}
	partial := []entities.Score{{CriterionID: "c-1", Value: 5}}
	if ScoresComplete(partial, criteria) {
		t.Fatalf("expected partial rubric to be incomplete")
	}
	full := append(partial, entities.Score{CriterionID: "c-2", Value: 6})
	if !ScoresComplete(full, criteria) {
		t.Fatalf("expected fully scored rubric to be complete")
	}
}

func TestDominantCategory(t *testing.T) {
	criteria := []entities.Criterion{
		{CriterionID: "c-1", Category: "technical", Weight: 0.4},
		{CriterionID: "c-2", Category: "business", Weight: 0.35},
		{CriterionID: "c-3", Category: "technical", Weight: 0.25},
	}
	if got := DominantCategory(criteria); got != "technical" {
		t.Fatalf("expected technical, got %s", got)
	}

	tied := []entities.Criterion{
		{CriterionID: "c-1", Category: "business", Weight: 0.5},
		{CriterionID: "c-2", Category: "technical", Weight: 0.5},
	}
	if got := DominantCategory(tied); got != "business" {
		t.Fatalf("expected lexical tiebreak to business, got %s", got)
	}
}
