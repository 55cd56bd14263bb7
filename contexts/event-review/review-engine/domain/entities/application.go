package entities

import "time"

// Stage is one phase of the review pipeline. Transitions are linear and
// forward-only; backward movement happens only through an audited reopen.
type Stage string

const (
	StageScreening      Stage = "SCREENING"
	StageDetailedReview Stage = "DETAILED_REVIEW"
	StageVideoReview    Stage = "VIDEO_REVIEW"
	StageConsensus      Stage = "CONSENSUS"
	StageFinalDecision  Stage = "FINAL_DECISION"
)

var stageOrder = map[Stage]int{
	StageScreening:      0,
	StageDetailedReview: 1,
	StageVideoReview:    2,
	StageConsensus:      3,
	StageFinalDecision:  4,
}

func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Ordinal returns the position of the stage in the pipeline, or -1 for an
// unknown stage value.
func (s Stage) Ordinal() int {
	order, ok := stageOrder[s]
	if !ok {
		return -1
	}
	return order
}

// NextStage returns the stage that follows s. The second return value is
// false when s is terminal or unknown.
func NextStage(s Stage) (Stage, bool) {
	switch s {
	case StageScreening:
		return StageDetailedReview, true
	case StageDetailedReview:
		return StageVideoReview, true
	case StageVideoReview:
		return StageConsensus, true
	case StageConsensus:
		return StageFinalDecision, true
	default:
		return "", false
	}
}

func (s Stage) Terminal() bool {
	return s == StageFinalDecision
}

type ApplicationStatus string

const (
	StatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	StatusAccepted    ApplicationStatus = "ACCEPTED"
	StatusRejected    ApplicationStatus = "REJECTED"
	StatusWaitlisted  ApplicationStatus = "WAITLISTED"
	StatusCancelled   ApplicationStatus = "CANCELLED"
)

// Application is the shared aggregate the engine reads and whose stage/status
// it exclusively mutates. Intake owns creation.
type Application struct {
	ApplicationID string
	EventID       string
	ApplicantID   string
	Stage         Stage
	Status        ApplicationStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReviewClosed reports whether a final status has been set. Once closed, all
// evaluation and consensus records for the application are read-only.
func (a Application) ReviewClosed() bool {
	return a.Status != StatusUnderReview
}
