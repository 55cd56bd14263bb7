package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	application "arbiter/contexts/event-review/review-engine/application"
	"arbiter/contexts/event-review/review-engine/domain/entities"
	"arbiter/contexts/event-review/review-engine/ports"
)

// DecisionNotifier consumes application.decided events and hands them to the
// notification collaborator. Delivery is fire-and-forget from the engine's
// point of view; redelivered events are deduplicated by event ID.
type DecisionNotifier struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Notifier      ports.Notifier
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

type decisionPayload struct {
	ApplicationID string `json:"application_id"`
	EventID       string `json:"event_id"`
	ApplicantID   string `json:"applicant_id"`
	Status        string `json:"status"`
}

func (c DecisionNotifier) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = "review-decision-notifier-cg"
	}
	return c.Subscriber.Subscribe(ctx, "application.decided", group, c.handle)
}

func (c DecisionNotifier) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	sum := sha256.Sum256(event.Data)
	payloadHash := hex.EncodeToString(sum[:])
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	ttl := c.DedupTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if seen, err := c.Dedup.ReserveEvent(ctx, event.EventID, payloadHash, now.Add(ttl)); err != nil {
		return err
	} else if seen {
		return nil
	}

	var payload decisionPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("decision event decode failed",
			"event", "review_decision_notify_decode_failed",
			"module", "event-review/review-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	if err := c.Notifier.NotifyDecision(ctx, ports.DecisionNotification{
		ApplicationID: payload.ApplicationID,
		EventID:       payload.EventID,
		ApplicantID:   payload.ApplicantID,
		Status:        entities.ApplicationStatus(payload.Status),
		DecidedAt:     event.OccurredAt,
	}); err != nil {
		logger.Error("decision notification failed",
			"event", "review_decision_notify_failed",
			"module", "event-review/review-engine",
			"layer", "worker",
			"application_id", payload.ApplicationID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("decision notification dispatched",
		"event", "review_decision_notified",
		"module", "event-review/review-engine",
		"layer", "worker",
		"application_id", payload.ApplicationID,
		"status", payload.Status,
	)
	return nil
}
