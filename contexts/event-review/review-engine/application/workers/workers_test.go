package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"arbiter/contexts/event-review/review-engine/adapters/memory"
	"arbiter/contexts/event-review/review-engine/ports"
)

type capturingPublisher struct {
	published []ports.EventEnvelope
	failAfter int
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

type capturingNotifier struct {
	notifications []ports.DecisionNotification
}

func (n *capturingNotifier) NotifyDecision(_ context.Context, notification ports.DecisionNotification) error {
	n.notifications = append(n.notifications, notification)
	return nil
}

func appendEnvelope(t *testing.T, store *memory.Store, eventID string, occurredAt time.Time) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:      eventID,
		EventType:    "application.decided",
		OccurredAt:   occurredAt,
		PartitionKey: "app-1",
		Data:         json.RawMessage(`{"application_id":"app-1","event_id":"event-1","applicant_id":"applicant-1","status":"ACCEPTED"}`),
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
}

func TestOutboxRelayPublishesPending(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	publisher := &capturingPublisher{}

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	appendEnvelope(t, store, "evt-1", base)
	appendEnvelope(t, store, "evt-2", base.Add(time.Minute))

	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.published))
	}
	if publisher.published[0].EventID != "evt-1" {
		t.Fatalf("expected evt-1 first, got %s", publisher.published[0].EventID)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained, got %d pending", len(pending))
	}

	// Nothing left to publish on the next cycle.
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("idle relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected no republish, got %d events", len(publisher.published))
	}
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	publisher := &capturingPublisher{failAfter: 1}

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	appendEnvelope(t, store, "evt-1", base)
	appendEnvelope(t, store, "evt-2", base.Add(time.Minute))

	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}
	if err := relay.RunOnce(ctx); err == nil {
		t.Fatalf("expected relay failure")
	}

	// The failed row stays pending for the next cycle.
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-2" {
		t.Fatalf("expected evt-2 still pending, got %d rows", len(pending))
	}
}

func TestDecisionNotifierDeduplicatesRedelivery(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := &capturingNotifier{}

	consumer := DecisionNotifier{
		Dedup:    store,
		Notifier: notifier,
		Clock:    store,
		DedupTTL: time.Hour,
	}

	event := ports.EventEnvelope{
		EventID:    "evt-1",
		EventType:  "application.decided",
		OccurredAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Data:       json.RawMessage(`{"application_id":"app-1","event_id":"event-1","applicant_id":"applicant-1","status":"ACCEPTED"}`),
	}
	if err := consumer.handle(ctx, event); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	// Redelivery of the same event is swallowed.
	if err := consumer.handle(ctx, event); err != nil {
		t.Fatalf("redelivery handle failed: %v", err)
	}

	if len(notifier.notifications) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.notifications))
	}
	notification := notifier.notifications[0]
	if notification.ApplicationID != "app-1" || string(notification.Status) != "ACCEPTED" {
		t.Fatalf("unexpected notification payload: %+v", notification)
	}
}
