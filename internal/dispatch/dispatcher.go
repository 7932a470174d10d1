package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"classnotify/internal/enrollment"
	"classnotify/internal/notification"
	"classnotify/internal/queue"
	"classnotify/internal/realtime"
)

// EventNotificationReceived is the realtime event name pushed on a
// recipient's user topic for each created notification.
const EventNotificationReceived = "notification.received"

// ErrDegradedDelivery reports a failed broker publish after the durable
// write and realtime push already succeeded. Callers log it and keep the
// primary action committed; the in-app notification rows stand.
var ErrDegradedDelivery = errors.New("broker publish failed, async delivery degraded")

// Store is the durable system of record for notification rows.
type Store interface {
	CreateBatch(ctx context.Context, userIDs []int64, p notification.CreateParams) ([]notification.Notification, error)
}

// Resolver turns a recipient scope into concrete user ids.
type Resolver interface {
	Resolve(ctx context.Context, scope enrollment.Scope) ([]int64, error)
}

// Publisher is the best-effort realtime channel.
type Publisher interface {
	Publish(topic, event string, payload interface{})
}

// Enqueuer publishes one durable batch message onto the broker.
type Enqueuer interface {
	EnqueueNotificationDelivery(ctx context.Context, payload queue.NotificationDeliveryPayload) (string, error)
}

// Dispatcher fans a single domain event out to the store, the realtime
// hub and the broker, in that order. Collaborators are injected so tests
// substitute in-memory fakes.
type Dispatcher struct {
	resolver  Resolver
	store     Store
	publisher Publisher
	broker    Enqueuer
}

func NewDispatcher(resolver Resolver, store Store, publisher Publisher, broker Enqueuer) *Dispatcher {
	return &Dispatcher{
		resolver:  resolver,
		store:     store,
		publisher: publisher,
		broker:    broker,
	}
}

// Dispatch creates one notification row per distinct recipient, pushes a
// realtime event per recipient, and enqueues exactly one broker message
// for the whole batch.
//
// Side effects are strictly ordered: durable store write, then realtime
// push, then broker enqueue. A store failure aborts before anything is
// published. A broker failure is surfaced as ErrDegradedDelivery but the
// committed rows and pushes stand.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []int64, p notification.CreateParams) error {
	recipients = Dedupe(recipients)
	if len(recipients) == 0 {
		return nil
	}

	notifications, err := d.store.CreateBatch(ctx, recipients, p)
	if err != nil {
		return fmt.Errorf("failed to persist notification batch: %w", err)
	}

	// The user-visible rows now exist. The remaining best-effort steps
	// run to completion even if the triggering request is cancelled.
	ctx = context.WithoutCancel(ctx)

	for i := range notifications {
		n := &notifications[i]
		d.publisher.Publish(realtime.UserTopic(n.UserID), EventNotificationReceived, n)
	}

	payload := queue.NotificationDeliveryPayload{
		CorrelationID: uuid.New().String(),
		Recipients:    recipients,
		Title:         p.Title,
		Message:       p.Message,
		Type:          string(p.Type),
		ClassroomID:   p.ClassroomID,
		AssignmentID:  p.AssignmentID,
	}

	if _, err := d.broker.EnqueueNotificationDelivery(ctx, payload); err != nil {
		slog.Error("Failed to enqueue notification delivery batch",
			"correlation_id", payload.CorrelationID,
			"recipients", len(recipients),
			"error", err)
		return fmt.Errorf("%w: %v", ErrDegradedDelivery, err)
	}

	return nil
}

// DispatchForEvent resolves the scope, then dispatches. A resolution
// failure propagates and nothing is written; an empty resolved set is a
// valid no-op.
func (d *Dispatcher) DispatchForEvent(ctx context.Context, scope enrollment.Scope, p notification.CreateParams) error {
	recipients, err := d.resolver.Resolve(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}
	return d.Dispatch(ctx, recipients, p)
}

// Dedupe collapses repeated ids, preserving first-seen order.
func Dedupe(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
