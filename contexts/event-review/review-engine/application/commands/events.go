package commands

import (
	"context"
	"encoding/json"
	"time"

	"arbiter/contexts/event-review/review-engine/ports"
)

// appendReviewEvent builds the canonical envelope and writes it through the
// outbox. Events are partitioned by application for stable ordering on
// application-scoped consumers. A nil outbox is a no-op so pure read/test
// wiring stays lightweight.
func appendReviewEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	applicationID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "review-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "application_id",
		PartitionKey:     applicationID,
		Data:             payload,
	})
}
