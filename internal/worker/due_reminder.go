package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"classnotify/internal/queue"
)

// handleDueReminder calls back into the API so the dispatcher there fans
// out assignment-due notifications against current enrollment state.
func (w *Worker) handleDueReminder(ctx context.Context, t *asynq.Task) error {
	var payload queue.DueReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed due reminder payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.api.TriggerDueReminder(ctx, payload.AssignmentID); err != nil {
		return fmt.Errorf("failed to trigger due reminder for assignment %d: %w", payload.AssignmentID, err)
	}

	slog.Info("Triggered assignment due reminder", "assignment_id", payload.AssignmentID)
	return nil
}
