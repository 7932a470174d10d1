package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// NotificationDeliveryPayload is the broker message for one dispatched
// batch: the full recipient list plus a correlation key the consumer uses
// as its idempotency token under redelivery.
type NotificationDeliveryPayload struct {
	CorrelationID string  `json:"correlation_id"`
	Recipients    []int64 `json:"recipients"`
	Title         string  `json:"title"`
	Message       string  `json:"message"`
	Type          string  `json:"type"`
	ClassroomID   *int64  `json:"classroom_id,omitempty"`
	AssignmentID  *int64  `json:"assignment_id,omitempty"`
}

// EnqueueNotificationDelivery publishes exactly one durable task per
// dispatched batch. The correlation key doubles as the task id, so an
// accidental duplicate enqueue of the same batch is rejected by the
// broker itself.
func (c *Client) EnqueueNotificationDelivery(ctx context.Context, payload NotificationDeliveryPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %v", err)
	}

	task := asynq.NewTask(TaskNotificationDelivery, payloadBytes)

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(TaskNotificationDelivery),
		asynq.TaskID(payload.CorrelationID),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %v", err)
	}

	return info.ID, nil
}
