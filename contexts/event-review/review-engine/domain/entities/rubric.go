package entities

import "time"

// Criterion is one weighted rubric dimension for an event+stage. Weights are
// positive but need not sum to one; scoring normalizes at computation time.
type Criterion struct {
	CriterionID string
	EventID     string
	Stage       Stage
	Name        string
	Category    string
	Weight      float64
	Order       int
}

// ReviewerCompetency records a reviewer's expertise weight for a category.
// Absence of a record means the default weight, never an error.
type ReviewerCompetency struct {
	ReviewerID      string
	Category        string
	CompetencyLevel int
	BaseWeight      float64
	UpdatedAt       time.Time
}

// ReviewerAssignment marks a reviewer as required for an application+stage.
// The assignment set is the quorum denominator for consensus.
type ReviewerAssignment struct {
	ApplicationID string
	Stage         Stage
	ReviewerID    string
	AssignedBy    string
	AssignedAt    time.Time
}
