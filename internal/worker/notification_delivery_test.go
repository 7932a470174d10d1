package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"classnotify/internal/queue"
)

type fakeDedup struct {
	markers map[string]bool
	seenErr error
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{markers: make(map[string]bool)}
}

func (f *fakeDedup) Seen(ctx context.Context, correlationID string) (bool, error) {
	if f.seenErr != nil {
		return false, f.seenErr
	}
	return f.markers[correlationID], nil
}

func (f *fakeDedup) Mark(ctx context.Context, correlationID string) error {
	f.markers[correlationID] = true
	return nil
}

type fakeAPI struct {
	deliveries  []queue.NotificationDeliveryPayload
	reminders   []int64
	deliveryErr error
	reminderErr error
}

func (f *fakeAPI) CompleteDelivery(ctx context.Context, payload queue.NotificationDeliveryPayload) error {
	if f.deliveryErr != nil {
		return f.deliveryErr
	}
	f.deliveries = append(f.deliveries, payload)
	return nil
}

func (f *fakeAPI) TriggerDueReminder(ctx context.Context, assignmentID int64) error {
	if f.reminderErr != nil {
		return f.reminderErr
	}
	f.reminders = append(f.reminders, assignmentID)
	return nil
}

type fakePush struct {
	messages []*messaging.Message
	err      error
}

func (f *fakePush) Send(ctx context.Context, message *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, message)
	return "msg-id", nil
}

func deliveryTask(t *testing.T, payload queue.NotificationDeliveryPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(queue.TaskNotificationDelivery, data)
}

func testPayload() queue.NotificationDeliveryPayload {
	return queue.NotificationDeliveryPayload{
		CorrelationID: "corr-1",
		Recipients:    []int64{10, 11},
		Title:         "Field trip",
		Message:       "Friday, bring a signed form",
		Type:          "announcement",
	}
}

func TestDeliveryCallsBackAndMarks(t *testing.T) {
	dedup := newFakeDedup()
	api := &fakeAPI{}
	w := &Worker{dedup: dedup, api: api}

	err := w.handleNotificationDelivery(context.Background(), deliveryTask(t, testPayload()))
	require.NoError(t, err)

	require.Len(t, api.deliveries, 1)
	require.Equal(t, "corr-1", api.deliveries[0].CorrelationID)
	require.True(t, dedup.markers["corr-1"])
}

func TestDeliveryRedeliveryIsIdempotent(t *testing.T) {
	dedup := newFakeDedup()
	api := &fakeAPI{}
	push := &fakePush{}
	w := &Worker{dedup: dedup, api: api, push: push}

	task := deliveryTask(t, testPayload())
	require.NoError(t, w.handleNotificationDelivery(context.Background(), task))
	require.NoError(t, w.handleNotificationDelivery(context.Background(), task))

	// One externally visible delivery despite redelivery.
	require.Len(t, api.deliveries, 1)
	require.Len(t, push.messages, 2) // one per recipient, first pass only
}

func TestDeliveryPushesPerRecipient(t *testing.T) {
	dedup := newFakeDedup()
	api := &fakeAPI{}
	push := &fakePush{}
	w := &Worker{dedup: dedup, api: api, push: push}

	require.NoError(t, w.handleNotificationDelivery(context.Background(), deliveryTask(t, testPayload())))

	require.Len(t, push.messages, 2)
	require.Equal(t, "user-10", push.messages[0].Topic)
	require.Equal(t, "user-11", push.messages[1].Topic)
	require.Equal(t, "Field trip", push.messages[0].Notification.Title)
}

func TestDeliveryPushFailureIsBestEffort(t *testing.T) {
	dedup := newFakeDedup()
	api := &fakeAPI{}
	push := &fakePush{err: errors.New("fcm unavailable")}
	w := &Worker{dedup: dedup, api: api, push: push}

	err := w.handleNotificationDelivery(context.Background(), deliveryTask(t, testPayload()))
	require.NoError(t, err)
	require.Len(t, api.deliveries, 1)
}

func TestDeliveryMalformedPayloadDeadLetters(t *testing.T) {
	w := &Worker{dedup: newFakeDedup(), api: &fakeAPI{}}

	task := asynq.NewTask(queue.TaskNotificationDelivery, []byte("{not json"))
	err := w.handleNotificationDelivery(context.Background(), task)
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDeliveryMissingCorrelationDeadLetters(t *testing.T) {
	w := &Worker{dedup: newFakeDedup(), api: &fakeAPI{}}

	payload := testPayload()
	payload.CorrelationID = ""
	err := w.handleNotificationDelivery(context.Background(), deliveryTask(t, payload))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDeliveryCallbackFailureRetries(t *testing.T) {
	dedup := newFakeDedup()
	api := &fakeAPI{deliveryErr: errors.New("api unreachable")}
	w := &Worker{dedup: dedup, api: api}

	err := w.handleNotificationDelivery(context.Background(), deliveryTask(t, testPayload()))
	require.Error(t, err)
	// Transient failure: retryable, and no marker so the retry delivers.
	require.NotErrorIs(t, err, asynq.SkipRetry)
	require.False(t, dedup.markers["corr-1"])
}

func TestDeliveryDedupCheckFailureRetries(t *testing.T) {
	dedup := newFakeDedup()
	dedup.seenErr = errors.New("redis timeout")
	api := &fakeAPI{}
	w := &Worker{dedup: dedup, api: api}

	err := w.handleNotificationDelivery(context.Background(), deliveryTask(t, testPayload()))
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, api.deliveries)
}

func TestDueReminderTriggersCallback(t *testing.T) {
	api := &fakeAPI{}
	w := &Worker{dedup: newFakeDedup(), api: api}

	data, err := json.Marshal(queue.DueReminderPayload{AssignmentID: 99})
	require.NoError(t, err)

	err = w.handleDueReminder(context.Background(), asynq.NewTask(queue.TaskAssignmentDueReminder, data))
	require.NoError(t, err)
	require.Equal(t, []int64{99}, api.reminders)
}

func TestDueReminderMalformedPayloadDeadLetters(t *testing.T) {
	w := &Worker{dedup: newFakeDedup(), api: &fakeAPI{}}

	err := w.handleDueReminder(context.Background(), asynq.NewTask(queue.TaskAssignmentDueReminder, []byte("nope")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDueReminderCallbackFailureRetries(t *testing.T) {
	api := &fakeAPI{reminderErr: fmt.Errorf("api unreachable")}
	w := &Worker{dedup: newFakeDedup(), api: api}

	data, _ := json.Marshal(queue.DueReminderPayload{AssignmentID: 7})
	err := w.handleDueReminder(context.Background(), asynq.NewTask(queue.TaskAssignmentDueReminder, data))
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}
