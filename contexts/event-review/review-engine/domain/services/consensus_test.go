package services

import (
	"errors"
	"math"
	"testing"

	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
)

func TestConfidenceFactorLinear(t *testing.T) {
	policy := DefaultPolicy()
	cases := []struct {
		confidence int
		want       float64
	}{
		{1, 0.5},
		{3, 1.0},
		{5, 1.5},
		{0, 0.5},
		{9, 1.5},
	}
	for _, c := range cases {
		got := policy.ConfidenceFactor(c.confidence)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("confidence %d: expected factor %f, got %f", c.confidence, c.want, got)
		}
	}
}

func TestAggregateWeightedMean(t *testing.T) {
	inputs := []EvaluationInput{
		{EvaluationID: "e-1", ReviewerID: "r-1", OverallScore: 8, Confidence: 3, ReviewerWeight: 1.0},
		{EvaluationID: "e-2", ReviewerID: "r-2", OverallScore: 4, Confidence: 3, ReviewerWeight: 0.5},
	}

	result, err := Aggregate(inputs, 2, false, DefaultPolicy())
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	// (8*1.0 + 4*0.5) / 1.5
	want := 10.0 / 1.5
	if math.Abs(result.Score-want) > 1e-9 {
		t.Fatalf("expected score %f, got %f", want, result.Score)
	}
	// Spread is exactly the divergence threshold, which does not trip it.
	if result.Recommendation != entities.RecommendationWaitlist {
		t.Fatalf("expected WAITLIST, got %s", result.Recommendation)
	}
	if len(result.Inputs) != 2 {
		t.Fatalf("expected 2 weighted inputs, got %d", len(result.Inputs))
	}
	if result.Inputs[0].EvaluationID != "e-1" || result.Inputs[1].EvaluationID != "e-2" {
		t.Fatalf("expected inputs sorted by evaluation id")
	}
}

func TestAggregateConfidenceScalesWeight(t *testing.T) {
	inputs := []EvaluationInput{
		{EvaluationID: "e-1", ReviewerID: "r-1", OverallScore: 9, Confidence: 5, ReviewerWeight: 1.0},
		{EvaluationID: "e-2", ReviewerID: "r-2", OverallScore: 8, Confidence: 1, ReviewerWeight: 1.0},
	}

	result, err := Aggregate(inputs, 2, false, DefaultPolicy())
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	// (9*1.5 + 8*0.5) / 2.0
	want := 17.5 / 2.0
	if math.Abs(result.Score-want) > 1e-9 {
		t.Fatalf("expected score %f, got %f", want, result.Score)
	}
	if result.Recommendation != entities.RecommendationAccept {
		t.Fatalf("expected ACCEPT, got %s", result.Recommendation)
	}
}

func TestAggregateDivergenceForcesDiscussion(t *testing.T) {
	inputs := []EvaluationInput{
		{EvaluationID: "e-1", ReviewerID: "r-1", OverallScore: 9, Confidence: 3, ReviewerWeight: 1.0},
		{EvaluationID: "e-2", ReviewerID: "r-2", OverallScore: 2, Confidence: 3, ReviewerWeight: 1.0},
	}

	result, err := Aggregate(inputs, 2, false, DefaultPolicy())
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if math.Abs(result.Divergence-3.5) > 1e-9 {
		t.Fatalf("expected divergence 3.5, got %f", result.Divergence)
	}
	if result.Recommendation != entities.RecommendationNeedsDiscussion {
		t.Fatalf("expected NEEDS_DISCUSSION, got %s", result.Recommendation)
	}
}

func TestAggregateThresholds(t *testing.T) {
	policy := DefaultPolicy()
	cases := []struct {
		score float64
		want  entities.Recommendation
	}{
		{7.0, entities.RecommendationAccept},
		{6.99, entities.RecommendationWaitlist},
		{4.01, entities.RecommendationWaitlist},
		{4.0, entities.RecommendationReject},
	}
	for _, c := range cases {
		inputs := []EvaluationInput{
			{EvaluationID: "e-1", ReviewerID: "r-1", OverallScore: c.score, Confidence: 3, ReviewerWeight: 1.0},
			{EvaluationID: "e-2", ReviewerID: "r-2", OverallScore: c.score, Confidence: 3, ReviewerWeight: 1.0},
		}
		result, err := Aggregate(inputs, 2, false, policy)
		if err != nil {
			t.Fatalf("aggregate failed for score %f: %v", c.score, err)
		}
		if result.Recommendation != c.want {
			t.Fatalf("score %f: expected %s, got %s", c.score, c.want, result.Recommendation)
		}
	}
}

func TestAggregateQuorum(t *testing.T) {
	policy := DefaultPolicy()
	inputs := []EvaluationInput{
		{EvaluationID: "e-1", ReviewerID: "r-1", OverallScore: 8, Confidence: 3, ReviewerWeight: 1.0},
		{EvaluationID: "e-2", ReviewerID: "r-2", OverallScore: 8, Confidence: 3, ReviewerWeight: 1.0},
	}

	if _, err := Aggregate(inputs, 3, false, policy); !errors.Is(err, domainerrors.ErrInsufficientQuorum) {
		t.Fatalf("expected quorum error with pending assignments, got %v", err)
	}
	if _, err := Aggregate(nil, 0, false, policy); !errors.Is(err, domainerrors.ErrInsufficientQuorum) {
		t.Fatalf("expected quorum error with nothing assigned, got %v", err)
	}

	// Override relaxes to the configured minimum, not to zero.
	if _, err := Aggregate(inputs, 3, true, policy); err != nil {
		t.Fatalf("expected override aggregate to succeed: %v", err)
	}
	if _, err := Aggregate(inputs[:1], 3, true, policy); !errors.Is(err, domainerrors.ErrInsufficientQuorum) {
		t.Fatalf("expected override below minimum to fail, got %v", err)
	}
}
