package ports

import (
	"context"
	"encoding/json"
	"time"

	"arbiter/contexts/event-review/review-engine/domain/entities"
)

// EvaluationRepository persists evaluations and their per-criterion scores.
//
// SaveEvaluation uses optimistic concurrency: the entity carries the version
// the caller read. Version 0 creates the row (failing on a duplicate
// (application, reviewer, stage) identity); any other value performs a
// compare-and-swap and returns ErrVersionConflict on a stale write. On
// success the stored version is the given version plus one.
//
// SaveEvaluationScore applies the same compare-and-swap and persists the
// score in the same atomic step: when the version check fails, the score is
// not written either. A stale writer must never leave its score behind.
type EvaluationRepository interface {
	GetEvaluation(ctx context.Context, evaluationID string) (entities.Evaluation, error)
	GetEvaluationByIdentity(ctx context.Context, applicationID string, reviewerID string, stage entities.Stage) (entities.Evaluation, bool, error)
	ListEvaluationsByStage(ctx context.Context, applicationID string, stage entities.Stage) ([]entities.Evaluation, error)
	SaveEvaluation(ctx context.Context, evaluation entities.Evaluation) error
	SaveEvaluationScore(ctx context.Context, evaluation entities.Evaluation, score entities.Score) error
	ListScores(ctx context.Context, evaluationID string) ([]entities.Score, error)
}

type ApplicationRepository interface {
	GetApplication(ctx context.Context, applicationID string) (entities.Application, error)
	SaveApplication(ctx context.Context, application entities.Application) error
}

// ConsensusRepository owns the consensus records per application+stage.
// DecideConsensus is a conditional write: exactly one decide call can succeed
// for a given application+stage, every later one gets ErrAlreadyDecided.
type ConsensusRepository interface {
	GetConsensus(ctx context.Context, applicationID string, stage entities.Stage) (entities.Consensus, bool, error)
	SaveDraftConsensus(ctx context.Context, consensus entities.Consensus) error
	DecideConsensus(ctx context.Context, consensus entities.Consensus) error
}

// CriteriaCatalog supplies the weighted rubric for an event+stage.
// An unconfigured stage is a configuration fault (ErrNoCriteriaConfigured),
// never an empty slice: the engine refuses to compute zero-weighted scores.
type CriteriaCatalog interface {
	GetCriteria(ctx context.Context, eventID string, stage entities.Stage) ([]entities.Criterion, error)
}

// CompetencyRegistry resolves a reviewer's weight for a category. Missing
// competency data degrades gracefully: implementations return the documented
// default of 1.0, never an error, when no record exists.
type CompetencyRegistry interface {
	GetWeight(ctx context.Context, reviewerID string, category string) (float64, error)
}

const DefaultCompetencyWeight = 1.0

type AssignmentRepository interface {
	ListAssignments(ctx context.Context, applicationID string, stage entities.Stage) ([]entities.ReviewerAssignment, error)
	SaveAssignment(ctx context.Context, assignment entities.ReviewerAssignment) error
}

// RoleVerifier is the identity/role collaborator. The engine never infers
// authority; every decision-maker action passes through this capability.
type RoleVerifier interface {
	IsDecisionMaker(ctx context.Context, userID string, eventID string) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope is the canonical event shape appended to the outbox and
// published on the bus.
type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// EventDedupStore reserves event IDs so consumers stay idempotent under
// redelivery. It returns true when the event was already processed with the
// same payload hash.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// DecisionNotification is handed to the notification collaborator after an
// application reaches its final status. Delivery is fire-and-forget and out
// of the engine's scope.
type DecisionNotification struct {
	ApplicationID string
	EventID       string
	ApplicantID   string
	Status        entities.ApplicationStatus
	DecidedAt     time.Time
}

type Notifier interface {
	NotifyDecision(ctx context.Context, notification DecisionNotification) error
}
