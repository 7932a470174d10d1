package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"

	"classnotify/internal/queue"
)

// PushSender is the out-of-band push channel. *messaging.Client
// satisfies it.
type PushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// handleNotificationDelivery performs the out-of-band delivery for one
// batch. Returning an error nacks the task and the broker redelivers
// with backoff until the retry budget is spent, after which the task is
// archived (the dead-letter path). Wrapping asynq.SkipRetry dead-letters
// immediately for permanent failures.
func (w *Worker) handleNotificationDelivery(ctx context.Context, t *asynq.Task) error {
	var payload queue.NotificationDeliveryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed delivery payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.CorrelationID == "" || len(payload.Recipients) == 0 {
		return fmt.Errorf("delivery payload missing correlation id or recipients: %w", asynq.SkipRetry)
	}

	seen, err := w.dedup.Seen(ctx, payload.CorrelationID)
	if err != nil {
		return fmt.Errorf("dedup check failed: %w", err)
	}
	if seen {
		slog.Info("Skipping already-delivered batch", "correlation_id", payload.CorrelationID)
		return nil
	}

	// Push per recipient, best-effort. A recipient with no subscribed
	// device simply misses the push; the in-app row already exists.
	if w.push != nil {
		for _, userID := range payload.Recipients {
			msg := &messaging.Message{
				Topic: fmt.Sprintf("user-%d", userID),
				Notification: &messaging.Notification{
					Title: payload.Title,
					Body:  payload.Message,
				},
				Data: map[string]string{
					"type":           payload.Type,
					"correlation_id": payload.CorrelationID,
				},
			}
			if _, err := w.push.Send(ctx, msg); err != nil {
				slog.Warn("Failed to send push notification",
					"user_id", userID,
					"correlation_id", payload.CorrelationID,
					"error", err)
			}
		}
	}

	if err := w.api.CompleteDelivery(ctx, payload); err != nil {
		return fmt.Errorf("failed to complete delivery for batch %s: %w", payload.CorrelationID, err)
	}

	if err := w.dedup.Mark(ctx, payload.CorrelationID); err != nil {
		// The API receipt already dedups; losing the marker only costs
		// a callback round trip on redelivery.
		slog.Warn("Failed to set dedup marker", "correlation_id", payload.CorrelationID, "error", err)
	}

	slog.Info("Successfully delivered notification batch",
		"correlation_id", payload.CorrelationID,
		"recipients", len(payload.Recipients),
		"type", payload.Type)

	return nil
}
