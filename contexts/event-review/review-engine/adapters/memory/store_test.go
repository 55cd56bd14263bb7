package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"arbiter/contexts/event-review/review-engine/domain/entities"
	domainerrors "arbiter/contexts/event-review/review-engine/domain/errors"
	"arbiter/contexts/event-review/review-engine/ports"
)

func TestSaveEvaluationCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	evaluation := entities.Evaluation{
		EvaluationID:  "eval-1",
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-1",
		Stage:         entities.StageScreening,
		Status:        entities.EvaluationStatusDraft,
		Version:       0,
	}
	if err := store.SaveEvaluation(ctx, evaluation); err != nil {
		t.Fatalf("create evaluation failed: %v", err)
	}

	stored, err := store.GetEvaluation(ctx, "eval-1")
	if err != nil {
		t.Fatalf("get evaluation failed: %v", err)
	}
	if stored.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", stored.Version)
	}

	// Same id again as a create.
	if err := store.SaveEvaluation(ctx, evaluation); !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected conflict on duplicate create, got %v", err)
	}

	// Same reviewer/application/stage under a fresh id.
	duplicate := evaluation
	duplicate.EvaluationID = "eval-2"
	if err := store.SaveEvaluation(ctx, duplicate); !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected conflict on duplicate identity, got %v", err)
	}

	stored.OverallScore = 7.5
	if err := store.SaveEvaluation(ctx, stored); err != nil {
		t.Fatalf("update evaluation failed: %v", err)
	}
	updated, err := store.GetEvaluation(ctx, "eval-1")
	if err != nil {
		t.Fatalf("get evaluation failed: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2 after update, got %d", updated.Version)
	}

	// Stale writer still holds version 1.
	stale := stored
	stale.OverallScore = 3.0
	if err := store.SaveEvaluation(ctx, stale); !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected conflict on stale version, got %v", err)
	}

	missing := entities.Evaluation{EvaluationID: "eval-404", Version: 1}
	if err := store.SaveEvaluation(ctx, missing); !errors.Is(err, domainerrors.ErrEvaluationNotFound) {
		t.Fatalf("expected not found on unknown id, got %v", err)
	}
}

func TestSaveEvaluationScoreRollsBackStaleWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	evaluation := entities.Evaluation{
		EvaluationID:  "eval-1",
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-1",
		Stage:         entities.StageScreening,
		Status:        entities.EvaluationStatusDraft,
		Version:       0,
	}
	if err := store.SaveEvaluation(ctx, evaluation); err != nil {
		t.Fatalf("create evaluation failed: %v", err)
	}
	evaluation.Version = 1

	if err := store.SaveEvaluationScore(ctx, evaluation, entities.Score{
		EvaluationID: "eval-1",
		CriterionID:  "crit-1",
		Value:        8,
	}); err != nil {
		t.Fatalf("save evaluation score failed: %v", err)
	}

	// Second writer still holds version 1: its score must not land.
	if err := store.SaveEvaluationScore(ctx, evaluation, entities.Score{
		EvaluationID: "eval-1",
		CriterionID:  "crit-1",
		Value:        3,
	}); !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected conflict on stale score save, got %v", err)
	}

	scores, err := store.ListScores(ctx, "eval-1")
	if err != nil {
		t.Fatalf("list scores failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Value != 8 {
		t.Fatalf("expected winner's score 8 to survive, got %+v", scores)
	}

	stored, err := store.GetEvaluation(ctx, "eval-1")
	if err != nil {
		t.Fatalf("get evaluation failed: %v", err)
	}
	if stored.Version != 2 {
		t.Fatalf("expected version 2 after one score save, got %d", stored.Version)
	}

	missing := evaluation
	missing.EvaluationID = "eval-404"
	if err := store.SaveEvaluationScore(ctx, missing, entities.Score{
		EvaluationID: "eval-404",
		CriterionID:  "crit-1",
		Value:        5,
	}); !errors.Is(err, domainerrors.ErrEvaluationNotFound) {
		t.Fatalf("expected not found on unknown id, got %v", err)
	}
}

func TestDecideConsensusSingleWriter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	consensus := entities.Consensus{
		ConsensusID:    "cons-1",
		ApplicationID:  "app-1",
		Stage:          entities.StageConsensus,
		ConsensusScore: 7.8,
		Recommendation: entities.RecommendationAccept,
		FinalDecision:  entities.RecommendationAccept,
		DecidedBy:      "chair-1",
	}
	if err := store.DecideConsensus(ctx, consensus); err != nil {
		t.Fatalf("decide consensus failed: %v", err)
	}

	stored, ok, err := store.GetConsensus(ctx, "app-1", entities.StageConsensus)
	if err != nil || !ok {
		t.Fatalf("get consensus failed: ok=%v err=%v", ok, err)
	}
	if !stored.Decided {
		t.Fatalf("expected consensus marked decided")
	}

	second := consensus
	second.DecidedBy = "chair-2"
	if err := store.DecideConsensus(ctx, second); !errors.Is(err, domainerrors.ErrAlreadyDecided) {
		t.Fatalf("expected already decided on second writer, got %v", err)
	}

	if err := store.SaveDraftConsensus(ctx, consensus); !errors.Is(err, domainerrors.ErrAlreadyDecided) {
		t.Fatalf("expected draft save to refuse after decide, got %v", err)
	}
}

func TestSaveDraftConsensusStaysDraft(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	draft := entities.Consensus{
		ConsensusID:    "cons-1",
		ApplicationID:  "app-1",
		Stage:          entities.StageScreening,
		ConsensusScore: 5.0,
		Recommendation: entities.RecommendationWaitlist,
	}
	if err := store.SaveDraftConsensus(ctx, draft); err != nil {
		t.Fatalf("save draft failed: %v", err)
	}
	stored, ok, err := store.GetConsensus(ctx, "app-1", entities.StageScreening)
	if err != nil || !ok {
		t.Fatalf("get consensus failed: ok=%v err=%v", ok, err)
	}
	if stored.Decided {
		t.Fatalf("expected draft to remain undecided")
	}

	// Drafts refresh freely until a decision lands.
	draft.ConsensusScore = 6.0
	if err := store.SaveDraftConsensus(ctx, draft); err != nil {
		t.Fatalf("refresh draft failed: %v", err)
	}
}

func TestOutboxAppendAndRelayOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := ports.EventEnvelope{
		EventID:      "evt-1",
		EventType:    "evaluation.completed",
		OccurredAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		PartitionKey: "app-1",
		Data:         json.RawMessage(`{"application_id":"app-1"}`),
	}
	second := first
	second.EventID = "evt-2"
	second.OccurredAt = first.OccurredAt.Add(time.Minute)

	if err := store.AppendOutbox(ctx, first); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
	if err := store.AppendOutbox(ctx, second); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
	// Idempotent re-append with the identical envelope.
	if err := store.AppendOutbox(ctx, first); err != nil {
		t.Fatalf("idempotent append failed: %v", err)
	}
	// Same event id with a different payload is a conflict.
	mutated := first
	mutated.Data = json.RawMessage(`{"application_id":"app-2"}`)
	if err := store.AppendOutbox(ctx, mutated); !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected conflict on mutated payload, got %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending messages, got %d", len(pending))
	}
	if pending[0].OutboxID != "evt-1" || pending[1].OutboxID != "evt-2" {
		t.Fatalf("expected pending messages in creation order, got %s then %s", pending[0].OutboxID, pending[1].OutboxID)
	}

	if err := store.MarkOutboxPublished(ctx, "evt-1", time.Now().UTC()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-2" {
		t.Fatalf("expected only evt-2 pending, got %d messages", len(pending))
	}
}

func TestReserveEventDeduplication(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	expires := time.Now().UTC().Add(time.Hour)

	seen, err := store.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	if err != nil {
		t.Fatalf("reserve event failed: %v", err)
	}
	if seen {
		t.Fatalf("expected first reservation to be unseen")
	}

	seen, err = store.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	if err != nil {
		t.Fatalf("reserve event failed: %v", err)
	}
	if !seen {
		t.Fatalf("expected replay to be reported as seen")
	}

	if _, err := store.ReserveEvent(ctx, "evt-1", "hash-b", expires); !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected conflict on divergent payload hash, got %v", err)
	}

	// An expired reservation is released.
	if _, err := store.ReserveEvent(ctx, "evt-2", "hash-a", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("reserve event failed: %v", err)
	}
	seen, err = store.ReserveEvent(ctx, "evt-2", "hash-c", expires)
	if err != nil {
		t.Fatalf("reserve after expiry failed: %v", err)
	}
	if seen {
		t.Fatalf("expected expired reservation to be reusable")
	}
}

func TestGetCriteriaRequiresConfiguration(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.GetCriteria(ctx, "event-1", entities.StageScreening); !errors.Is(err, domainerrors.ErrNoCriteriaConfigured) {
		t.Fatalf("expected no criteria error, got %v", err)
	}

	store.SetCriteria("event-1", entities.StageScreening, []entities.Criterion{
		{CriterionID: "c-2", Name: "Impact", Order: 2, Weight: 0.5},
		{CriterionID: "c-1", Name: "Feasibility", Order: 1, Weight: 0.5},
	})
	criteria, err := store.GetCriteria(ctx, "event-1", entities.StageScreening)
	if err != nil {
		t.Fatalf("get criteria failed: %v", err)
	}
	if len(criteria) != 2 || criteria[0].CriterionID != "c-1" {
		t.Fatalf("expected criteria sorted by display order")
	}
}

func TestGetWeightDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	weight, err := store.GetWeight(ctx, "reviewer-1", "technical")
	if err != nil {
		t.Fatalf("get weight failed: %v", err)
	}
	if weight != ports.DefaultCompetencyWeight {
		t.Fatalf("expected default weight %f, got %f", ports.DefaultCompetencyWeight, weight)
	}

	store.SetCompetency(entities.ReviewerCompetency{
		ReviewerID: "reviewer-1",
		Category:   "technical",
		BaseWeight: 1.4,
	})
	weight, err = store.GetWeight(ctx, "reviewer-1", "technical")
	if err != nil {
		t.Fatalf("get weight failed: %v", err)
	}
	if weight != 1.4 {
		t.Fatalf("expected configured weight 1.4, got %f", weight)
	}
}
