package entities

import "time"

// Consensus is the aggregated decision record for an application at a stage.
// Recommendation and ConsensusScore are recomputed whenever quorum holds;
// FinalDecision is written only by an explicit decide action.
type Consensus struct {
	ConsensusID     string
	ApplicationID   string
	Stage           Stage
	ConsensusScore  float64
	Divergence      float64
	Recommendation  Recommendation
	FinalDecision   Recommendation
	Decided         bool
	DecidedBy       string
	DiscussionNotes string
	DecidedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
