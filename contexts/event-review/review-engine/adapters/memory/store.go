package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
	"arbiter/contexts/event-review/review-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type scoreKey struct {
	evaluationID string
	criterionID  string
}

type consensusKey struct {
	applicationID string
	stage         entities.Stage
}

// Store is the in-memory adapter backing tests and local wiring. It
// implements every port of the module behind one RWMutex, including the
// compare-and-swap semantics of evaluation saves and the single-writer
// semantics of consensus decisions.
type Store struct {
	mu sync.RWMutex

	applications   map[string]entities.Application
	evaluations    map[string]entities.Evaluation
	scores         map[scoreKey]entities.Score
	consensus      map[consensusKey]entities.Consensus
	criteria       map[string][]entities.Criterion
	competencies   map[string]entities.ReviewerCompetency
	assignments    map[string][]entities.ReviewerAssignment
	decisionMakers map[string]map[string]bool
	outbox         map[string]outboxRecord
	eventDedup     map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		applications:   make(map[string]entities.Application),
		evaluations:    make(map[string]entities.Evaluation),
		scores:         make(map[scoreKey]entities.Score),
		consensus:      make(map[consensusKey]entities.Consensus),
		criteria:       make(map[string][]entities.Criterion),
		competencies:   make(map[string]entities.ReviewerCompetency),
		assignments:    make(map[string][]entities.ReviewerAssignment),
		decisionMakers: make(map[string]map[string]bool),
		outbox:         make(map[string]outboxRecord),
		eventDedup:     make(map[string]dedupRecord),
	}
}

func rubricKey(eventID string, stage entities.Stage) string {
	return strings.TrimSpace(eventID) + "|" + string(stage)
}

func competencyKey(reviewerID string, category string) string {
	return strings.TrimSpace(reviewerID) + "|" + strings.TrimSpace(category)
}

func assignmentKey(applicationID string, stage entities.Stage) string {
	return strings.TrimSpace(applicationID) + "|" + string(stage)
}

// Seed helpers used by module wiring and tests.

func (s *Store) SetApplication(app entities.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[strings.TrimSpace(app.ApplicationID)] = app
}

func (s *Store) SetCriteria(eventID string, stage entities.Stage, criteria []entities.Criterion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]entities.Criterion(nil), criteria...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].Order < items[j].Order
	})
	s.criteria[rubricKey(eventID, stage)] = items
}

func (s *Store) SetCompetency(competency entities.ReviewerCompetency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competencies[competencyKey(competency.ReviewerID, competency.Category)] = competency
}

func (s *Store) SetAssignment(assignment entities.ReviewerAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey(assignment.ApplicationID, assignment.Stage)
	for _, existing := range s.assignments[key] {
		if strings.EqualFold(existing.ReviewerID, assignment.ReviewerID) {
			return
		}
	}
	s.assignments[key] = append(s.assignments[key], assignment)
}

func (s *Store) SetDecisionMaker(userID string, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID = strings.TrimSpace(eventID)
	if s.decisionMakers[eventID] == nil {
		s.decisionMakers[eventID] = make(map[string]bool)
	}
	s.decisionMakers[eventID][strings.TrimSpace(userID)] = true
}

// ApplicationRepository

func (s *Store) GetApplication(_ context.Context, applicationID string) (entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[strings.TrimSpace(applicationID)]
	if !ok {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return app, nil
}

func (s *Store) SaveApplication(_ context.Context, app entities.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[strings.TrimSpace(app.ApplicationID)] = app
	return nil
}

// EvaluationRepository

func (s *Store) GetEvaluation(_ context.Context, evaluationID string) (entities.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evaluation, ok := s.evaluations[strings.TrimSpace(evaluationID)]
	if !ok {
		return entities.Evaluation{}, domainerrors.ErrEvaluationNotFound
	}
	return evaluation, nil
}

func (s *Store) GetEvaluationByIdentity(
	_ context.Context,
	applicationID string,
	reviewerID string,
	stage entities.Stage,
) (entities.Evaluation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	applicationID = strings.TrimSpace(applicationID)
	reviewerID = strings.TrimSpace(reviewerID)
	for _, evaluation := range s.evaluations {
		if evaluation.ApplicationID == applicationID &&
			strings.EqualFold(evaluation.ReviewerID, reviewerID) &&
			evaluation.Stage == stage {
			return evaluation, true, nil
		}
	}
	return entities.Evaluation{}, false, nil
}

func (s *Store) ListEvaluationsByStage(
	_ context.Context,
	applicationID string,
	stage entities.Stage,
) ([]entities.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Evaluation, 0)
	for _, evaluation := range s.evaluations {
		if evaluation.ApplicationID == strings.TrimSpace(applicationID) && evaluation.Stage == stage {
			items = append(items, evaluation)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].EvaluationID < items[j].EvaluationID
	})
	return items, nil
}

func (s *Store) SaveEvaluation(_ context.Context, evaluation entities.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(evaluation.EvaluationID)
	stored, exists := s.evaluations[key]
	if evaluation.Version == 0 {
		if exists {
			return domainerrors.ErrVersionConflict
		}
		for _, other := range s.evaluations {
			if other.ApplicationID == evaluation.ApplicationID &&
				strings.EqualFold(other.ReviewerID, evaluation.ReviewerID) &&
				other.Stage == evaluation.Stage {
				return domainerrors.ErrVersionConflict
			}
		}
		evaluation.Version = 1
		s.evaluations[key] = evaluation
		return nil
	}
	if !exists {
		return domainerrors.ErrEvaluationNotFound
	}
	if stored.Version != evaluation.Version {
		return domainerrors.ErrVersionConflict
	}
	evaluation.Version = stored.Version + 1
	s.evaluations[key] = evaluation
	return nil
}

func (s *Store) ListScores(_ context.Context, evaluationID string) ([]entities.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Score, 0)
	for key, score := range s.scores {
		if key.evaluationID == strings.TrimSpace(evaluationID) {
			items = append(items, score)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CriterionID < items[j].CriterionID
	})
	return items, nil
}

// SaveEvaluationScore holds the lock across the version check and the score
// write, so a stale evaluation save never leaves its score behind.
func (s *Store) SaveEvaluationScore(_ context.Context, evaluation entities.Evaluation, score entities.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(evaluation.EvaluationID)
	stored, exists := s.evaluations[key]
	if !exists {
		return domainerrors.ErrEvaluationNotFound
	}
	if stored.Version != evaluation.Version {
		return domainerrors.ErrVersionConflict
	}
	evaluation.Version = stored.Version + 1
	s.evaluations[key] = evaluation

	sk := scoreKey{
		evaluationID: key,
		criterionID:  strings.TrimSpace(score.CriterionID),
	}
	if existing, ok := s.scores[sk]; ok {
		score.CreatedAt = existing.CreatedAt
	}
	s.scores[sk] = score
	return nil
}

// ConsensusRepository

func (s *Store) GetConsensus(
	_ context.Context,
	applicationID string,
	stage entities.Stage,
) (entities.Consensus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	consensus, ok := s.consensus[consensusKey{
		applicationID: strings.TrimSpace(applicationID),
		stage:         stage,
	}]
	return consensus, ok, nil
}

func (s *Store) SaveDraftConsensus(_ context.Context, consensus entities.Consensus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := consensusKey{
		applicationID: strings.TrimSpace(consensus.ApplicationID),
		stage:         consensus.Stage,
	}
	if existing, ok := s.consensus[key]; ok && existing.Decided {
		return domainerrors.ErrAlreadyDecided
	}
	consensus.Decided = false
	s.consensus[key] = consensus
	return nil
}

func (s *Store) DecideConsensus(_ context.Context, consensus entities.Consensus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := consensusKey{
		applicationID: strings.TrimSpace(consensus.ApplicationID),
		stage:         consensus.Stage,
	}
	if existing, ok := s.consensus[key]; ok && existing.Decided {
		return domainerrors.ErrAlreadyDecided
	}
	consensus.Decided = true
	s.consensus[key] = consensus
	return nil
}

// CriteriaCatalog

func (s *Store) GetCriteria(_ context.Context, eventID string, stage entities.Stage) ([]entities.Criterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	criteria, ok := s.criteria[rubricKey(eventID, stage)]
	if !ok || len(criteria) == 0 {
		return nil, domainerrors.ErrNoCriteriaConfigured
	}
	return append([]entities.Criterion(nil), criteria...), nil
}

// CompetencyRegistry

func (s *Store) GetWeight(_ context.Context, reviewerID string, category string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	competency, ok := s.competencies[competencyKey(reviewerID, category)]
	if !ok || competency.BaseWeight <= 0 {
		return ports.DefaultCompetencyWeight, nil
	}
	return competency.BaseWeight, nil
}

// AssignmentRepository

func (s *Store) ListAssignments(
	_ context.Context,
	applicationID string,
	stage entities.Stage,
) ([]entities.ReviewerAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.assignments[assignmentKey(applicationID, stage)]
	return append([]entities.ReviewerAssignment(nil), items...), nil
}

func (s *Store) SaveAssignment(_ context.Context, assignment entities.ReviewerAssignment) error {
	s.SetAssignment(assignment)
	return nil
}

// RoleVerifier

func (s *Store) IsDecisionMaker(_ context.Context, userID string, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	makers, ok := s.decisionMakers[strings.TrimSpace(eventID)]
	if !ok {
		return false, nil
	}
	return makers[strings.TrimSpace(userID)], nil
}

// Outbox

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrVersionConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrVersionConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrVersionConflict
			}
			return true, nil
		}
	}
	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

// Clock / IDGenerator

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.ApplicationRepository = (*Store)(nil)
var _ ports.EvaluationRepository = (*Store)(nil)
var _ ports.ConsensusRepository = (*Store)(nil)
var _ ports.CriteriaCatalog = (*Store)(nil)
var _ ports.CompetencyRegistry = (*Store)(nil)
var _ ports.AssignmentRepository = (*Store)(nil)
var _ ports.RoleVerifier = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
