package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"classnotify/internal/config"
	"classnotify/internal/queue"
)

// APIClient is the callback channel into the producer API.
type APIClient interface {
	CompleteDelivery(ctx context.Context, payload queue.NotificationDeliveryPayload) error
	TriggerDueReminder(ctx context.Context, assignmentID int64) error
}

// Worker consumes delivery batches and reminder tasks from the broker.
// Each message is processed at-least-once; redelivery of the same
// correlation key is absorbed by the dedup store.
type Worker struct {
	server *asynq.Server
	dedup  DedupStore
	api    APIClient
	push   PushSender
}

// NewWorker builds the consumer. push may be nil; the FCM channel is
// optional.
func NewWorker(cfg *config.Config, dedup DedupStore, api APIClient, push PushSender) *Worker {
	server := asynq.NewServer(
		queue.RedisOpt(cfg),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				queue.TaskNotificationDelivery:  10,
				queue.TaskAssignmentDueReminder: 1,
			},
		},
	)

	return &Worker{
		server: server,
		dedup:  dedup,
		api:    api,
		push:   push,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(queue.TaskNotificationDelivery, w.handleNotificationDelivery)
	mux.HandleFunc(queue.TaskAssignmentDueReminder, w.handleDueReminder)

	slog.Info("Starting worker",
		"queues", []string{queue.TaskNotificationDelivery, queue.TaskAssignmentDueReminder},
		"concurrency", 10)

	if err := w.server.Start(mux); err != nil {
		return err
	}

	slog.Info("Worker started successfully")

	<-ctx.Done()

	w.server.Stop()
	w.server.Shutdown()
	slog.Info("Worker stopped")
	return nil
}
