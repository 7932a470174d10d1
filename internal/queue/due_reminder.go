package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

type DueReminderPayload struct {
	AssignmentID int64 `json:"assignment_id"`
}

// ScheduleDueReminder enqueues a reminder task that the broker holds
// until processAt. A processAt already in the past fires immediately.
func (c *Client) ScheduleDueReminder(ctx context.Context, assignmentID int64, processAt time.Time) error {
	payload := DueReminderPayload{
		AssignmentID: assignmentID,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	task := asynq.NewTask(TaskAssignmentDueReminder, payloadBytes)

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(TaskAssignmentDueReminder),
		asynq.ProcessAt(processAt),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue due reminder task: %v", err)
	}

	return nil
}
