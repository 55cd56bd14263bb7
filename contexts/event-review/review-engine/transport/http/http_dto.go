package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StartEvaluationRequest struct {
	ApplicationID string `json:"application_id"`
}

type SubmitScoreRequest struct {
	CriterionID     string  `json:"criterion_id"`
	Value           float64 `json:"value"`
	Reasoning       string  `json:"reasoning,omitempty"`
	ExpectedVersion int64   `json:"expected_version"`
}

type CompleteEvaluationRequest struct {
	Confidence      int    `json:"confidence"`
	Recommendation  string `json:"recommendation,omitempty"`
	ExpectedVersion int64  `json:"expected_version"`
}

type ReopenEvaluationRequest struct {
	Reason string `json:"reason"`
}

type EvaluationResponse struct {
	EvaluationID   string  `json:"evaluation_id"`
	ApplicationID  string  `json:"application_id"`
	ReviewerID     string  `json:"reviewer_id"`
	Stage          string  `json:"stage"`
	Status         string  `json:"status"`
	OverallScore   float64 `json:"overall_score"`
	Confidence     int     `json:"confidence,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
	CompletedAt    string  `json:"completed_at,omitempty"`
	Version        int64   `json:"version"`
}

type ScoreResponse struct {
	EvaluationID string  `json:"evaluation_id"`
	CriterionID  string  `json:"criterion_id"`
	Value        float64 `json:"value"`
	Reasoning    string  `json:"reasoning,omitempty"`
}

type WeightedInputItem struct {
	EvaluationID string  `json:"evaluation_id"`
	ReviewerID   string  `json:"reviewer_id"`
	OverallScore float64 `json:"overall_score"`
	Weight       float64 `json:"weight"`
}

type RecommendationView struct {
	ConsensusScore float64             `json:"consensus_score"`
	Divergence     float64             `json:"divergence"`
	Recommendation string              `json:"recommendation"`
	Inputs         []WeightedInputItem `json:"inputs"`
}

type ConsensusView struct {
	ConsensusID     string  `json:"consensus_id"`
	ConsensusScore  float64 `json:"consensus_score"`
	Divergence      float64 `json:"divergence"`
	Recommendation  string  `json:"recommendation"`
	FinalDecision   string  `json:"final_decision,omitempty"`
	Decided         bool    `json:"decided"`
	DecidedBy       string  `json:"decided_by,omitempty"`
	DiscussionNotes string  `json:"discussion_notes,omitempty"`
	DecidedAt       string  `json:"decided_at,omitempty"`
}

type ConsensusDataResponse struct {
	ApplicationID  string               `json:"application_id"`
	Stage          string               `json:"stage"`
	CompletedCount int                  `json:"completed_count"`
	AssignedCount  int                  `json:"assigned_count"`
	QuorumMet      bool                 `json:"quorum_met"`
	Evaluations    []EvaluationResponse `json:"evaluations"`
	Recommendation *RecommendationView  `json:"recommendation,omitempty"`
	Consensus      *ConsensusView       `json:"consensus,omitempty"`
}

type DecideConsensusRequest struct {
	Stage           string `json:"stage,omitempty"`
	FinalDecision   string `json:"final_decision"`
	DiscussionNotes string `json:"discussion_notes,omitempty"`
	QuorumOverride  bool   `json:"quorum_override,omitempty"`
}

type ConsensusResponse struct {
	ConsensusView
	ApplicationID string `json:"application_id"`
	Stage         string `json:"stage"`
}

type AdvanceStageRequest struct {
	Override       bool   `json:"override,omitempty"`
	OverrideReason string `json:"override_reason,omitempty"`
}

type ReopenStageRequest struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

type ApplicationResponse struct {
	ApplicationID string `json:"application_id"`
	EventID       string `json:"event_id"`
	ApplicantID   string `json:"applicant_id"`
	Stage         string `json:"stage"`
	Status        string `json:"status"`
}
