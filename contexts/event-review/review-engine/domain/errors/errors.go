package errors

import "errors"

var (
	ErrInvalidInput             = errors.New("invalid review input")
	ErrScoreOutOfRange          = errors.New("score value is out of range")
	ErrInvalidConfidence        = errors.New("confidence must be between 1 and 5")
	ErrInvalidDecision          = errors.New("final decision is not a decidable outcome")
	ErrDiscussionNotesRequired  = errors.New("discussion notes are required when overriding the recommendation")
	ErrOverrideReasonRequired   = errors.New("an override reason is required")
	ErrApplicationNotFound      = errors.New("application not found")
	ErrEvaluationNotFound       = errors.New("evaluation not found")
	ErrCriterionNotFound        = errors.New("criterion not found for stage rubric")
	ErrConsensusNotFound        = errors.New("consensus not found")
	ErrNoCriteriaConfigured     = errors.New("no criteria configured for event stage")
	ErrMissingRequiredCriterion = errors.New("a required criterion has no score")
	ErrNotAssignedReviewer      = errors.New("caller is not the assigned reviewer")
	ErrNotDecisionMaker         = errors.New("caller is not an authorized decision maker")
	ErrEvaluationCompleted      = errors.New("evaluation is completed and immutable")
	ErrEvaluationNotCompleted   = errors.New("evaluation is not completed")
	ErrReviewClosed             = errors.New("application review is closed")
	ErrVersionConflict          = errors.New("evaluation was modified concurrently")
	ErrAlreadyDecided           = errors.New("consensus is already decided for this stage")
	ErrConsensusNotDecided      = errors.New("no decided consensus exists for the current stage")
	ErrInsufficientQuorum       = errors.New("not enough completed evaluations for consensus")
	ErrStageTerminal            = errors.New("application is at the terminal stage")
	ErrInvalidReopenTarget      = errors.New("reopen target must be an earlier stage")
)
