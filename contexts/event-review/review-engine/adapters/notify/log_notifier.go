package notify

import (
	"context"
	"log/slog"

	"arbiter/contexts/event-review/review-engine/ports"
)

// LogNotifier records decision notifications in the process log. It stands in
// for an external notification channel; delivery semantics stay
// fire-and-forget either way.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotifyDecision(_ context.Context, notification ports.DecisionNotification) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("applicant decision notification",
		"event", "review_decision_notification",
		"module", "event-review/review-engine",
		"layer", "adapter",
		"application_id", notification.ApplicationID,
		"event_id", notification.EventID,
		"applicant_id", notification.ApplicantID,
		"status", string(notification.Status),
	)
	return nil
}

var _ ports.Notifier = LogNotifier{}
