package entities

import "time"

type EvaluationStatus string

const (
	EvaluationStatusDraft     EvaluationStatus = "DRAFT"
	EvaluationStatusCompleted EvaluationStatus = "COMPLETED"
)

type Recommendation string

const (
	RecommendationAccept          Recommendation = "ACCEPT"
	RecommendationReject          Recommendation = "REJECT"
	RecommendationWaitlist        Recommendation = "WAITLIST"
	RecommendationNeedsDiscussion Recommendation = "NEEDS_DISCUSSION"
)

// DecidableOutcome reports whether r may be written as a final decision.
// NEEDS_DISCUSSION is a computed signal, never a decision.
func (r Recommendation) DecidableOutcome() bool {
	switch r {
	case RecommendationAccept, RecommendationReject, RecommendationWaitlist:
		return true
	default:
		return false
	}
}

// Score is one reviewer's rating of one criterion. At most one score exists
// per (evaluation, criterion).
type Score struct {
	EvaluationID string
	CriterionID  string
	Value        float64
	Reasoning    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Evaluation is one reviewer's scorecard for an application at a stage.
// Exactly one exists per (application, reviewer, stage). It is owned by its
// reviewer while DRAFT and immutable once COMPLETED except through an
// audited reopen. Version backs optimistic concurrency on draft writes.
type Evaluation struct {
	EvaluationID   string
	ApplicationID  string
	ReviewerID     string
	Stage          Stage
	Status         EvaluationStatus
	OverallScore   float64
	Confidence     int
	Recommendation Recommendation
	CompletedAt    *time.Time
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (e Evaluation) Completed() bool {
	return e.Status == EvaluationStatusCompleted
}
