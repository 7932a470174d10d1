package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"classnotify/internal/enrollment"
	"classnotify/internal/notification"
	"classnotify/internal/queue"
)

// The fakes share one call log so tests can assert the strict side-effect
// order: durable store write, then realtime push, then broker enqueue.

type fakeStore struct {
	log     *[]string
	err     error
	batches [][]int64
	params  []notification.CreateParams
}

func (f *fakeStore) CreateBatch(ctx context.Context, userIDs []int64, p notification.CreateParams) ([]notification.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, userIDs)
	f.params = append(f.params, p)
	*f.log = append(*f.log, "store")

	created := make([]notification.Notification, 0, len(userIDs))
	for i, id := range userIDs {
		created = append(created, notification.Notification{
			ID:      fmt.Sprintf("n-%d", i),
			UserID:  id,
			Title:   p.Title,
			Message: p.Message,
			Type:    p.Type,
		})
	}
	return created, nil
}

type fakeResolver struct {
	ids    []int64
	err    error
	scopes []enrollment.Scope
}

func (f *fakeResolver) Resolve(ctx context.Context, scope enrollment.Scope) ([]int64, error) {
	f.scopes = append(f.scopes, scope)
	return f.ids, f.err
}

type publishedEvent struct {
	topic string
	event string
}

type fakePublisher struct {
	log    *[]string
	events []publishedEvent
}

func (f *fakePublisher) Publish(topic, event string, payload interface{}) {
	f.events = append(f.events, publishedEvent{topic: topic, event: event})
	*f.log = append(*f.log, "publish:"+topic)
}

type fakeEnqueuer struct {
	log      *[]string
	err      error
	payloads []queue.NotificationDeliveryPayload
}

func (f *fakeEnqueuer) EnqueueNotificationDelivery(ctx context.Context, payload queue.NotificationDeliveryPayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, payload)
	*f.log = append(*f.log, "enqueue")
	return payload.CorrelationID, nil
}

func newTestDispatcher() (*Dispatcher, *fakeResolver, *fakeStore, *fakePublisher, *fakeEnqueuer, *[]string) {
	log := &[]string{}
	resolver := &fakeResolver{}
	store := &fakeStore{log: log}
	publisher := &fakePublisher{log: log}
	enqueuer := &fakeEnqueuer{log: log}
	return NewDispatcher(resolver, store, publisher, enqueuer), resolver, store, publisher, enqueuer, log
}

func TestDispatchFansOutOncePerDistinctRecipient(t *testing.T) {
	d, _, store, publisher, enqueuer, _ := newTestDispatcher()

	err := d.Dispatch(context.Background(), []int64{1, 2, 1, 2, 1}, notification.CreateParams{
		Title:   "Homework posted",
		Message: "Chapter 4 exercises",
		Type:    notification.TypeAssignment,
	})
	require.NoError(t, err)

	require.Len(t, store.batches, 1)
	require.Equal(t, []int64{1, 2}, store.batches[0])

	require.Equal(t, []publishedEvent{
		{topic: "user:1", event: EventNotificationReceived},
		{topic: "user:2", event: EventNotificationReceived},
	}, publisher.events)

	require.Len(t, enqueuer.payloads, 1)
	payload := enqueuer.payloads[0]
	require.Equal(t, []int64{1, 2}, payload.Recipients)
	require.Equal(t, "Homework posted", payload.Title)
	require.Equal(t, string(notification.TypeAssignment), payload.Type)
	require.NotEmpty(t, payload.CorrelationID)
}

func TestDispatchEmptyRecipientsIsANoOp(t *testing.T) {
	d, _, store, publisher, enqueuer, _ := newTestDispatcher()

	require.NoError(t, d.Dispatch(context.Background(), nil, notification.CreateParams{Title: "x"}))
	require.NoError(t, d.Dispatch(context.Background(), []int64{}, notification.CreateParams{Title: "x"}))

	require.Empty(t, store.batches)
	require.Empty(t, publisher.events)
	require.Empty(t, enqueuer.payloads)
}

func TestDispatchSideEffectOrder(t *testing.T) {
	d, _, _, _, _, log := newTestDispatcher()

	err := d.Dispatch(context.Background(), []int64{7, 8}, notification.CreateParams{
		Title: "t", Message: "m", Type: notification.TypeAnnouncement,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"store", "publish:user:7", "publish:user:8", "enqueue"}, *log)
}

func TestDispatchStoreFailureAbortsBeforePublish(t *testing.T) {
	d, _, store, publisher, enqueuer, _ := newTestDispatcher()
	store.err = errors.New("connection refused")

	err := d.Dispatch(context.Background(), []int64{1, 2}, notification.CreateParams{Title: "t"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDegradedDelivery)

	require.Empty(t, publisher.events)
	require.Empty(t, enqueuer.payloads)
}

func TestDispatchBrokerFailureIsDegradedNotFatal(t *testing.T) {
	d, _, store, publisher, enqueuer, _ := newTestDispatcher()
	enqueuer.err = errors.New("redis down")

	err := d.Dispatch(context.Background(), []int64{1, 2}, notification.CreateParams{
		Title: "t", Message: "m", Type: notification.TypeAnnouncement,
	})
	require.ErrorIs(t, err, ErrDegradedDelivery)

	// Rows and realtime pushes still completed.
	require.Len(t, store.batches, 1)
	require.Len(t, publisher.events, 2)
}

func TestDispatchForEventResolverFailurePropagates(t *testing.T) {
	d, resolver, store, publisher, enqueuer, _ := newTestDispatcher()
	resolver.err = errors.New("enrollment query failed")

	err := d.DispatchForEvent(context.Background(), enrollment.Scope{ClassroomID: 5}, notification.CreateParams{Title: "t"})
	require.Error(t, err)

	require.Empty(t, store.batches)
	require.Empty(t, publisher.events)
	require.Empty(t, enqueuer.payloads)
}

func TestDispatchForEventClassroomScenario(t *testing.T) {
	// Classroom with students A=10 and B=11; the teacher posts to all
	// students.
	d, resolver, store, publisher, enqueuer, _ := newTestDispatcher()
	resolver.ids = []int64{10, 11}

	classroomID := int64(5)
	err := d.DispatchForEvent(context.Background(),
		enrollment.Scope{ClassroomID: classroomID},
		notification.CreateParams{
			Title:       "Field trip",
			Message:     "Friday, bring a signed form",
			Type:        notification.TypeAnnouncement,
			ClassroomID: &classroomID,
		})
	require.NoError(t, err)

	require.Equal(t, [][]int64{{10, 11}}, store.batches)
	require.Equal(t, []publishedEvent{
		{topic: "user:10", event: EventNotificationReceived},
		{topic: "user:11", event: EventNotificationReceived},
	}, publisher.events)
	require.Len(t, enqueuer.payloads, 1)
	require.Equal(t, []int64{10, 11}, enqueuer.payloads[0].Recipients)
}

func TestDispatchForEventEmptyResolutionIsANoOp(t *testing.T) {
	d, resolver, store, _, enqueuer, _ := newTestDispatcher()
	resolver.ids = nil

	err := d.DispatchForEvent(context.Background(), enrollment.Scope{ClassroomID: 5}, notification.CreateParams{Title: "t"})
	require.NoError(t, err)
	require.Empty(t, store.batches)
	require.Empty(t, enqueuer.payloads)
}

func TestDedupe(t *testing.T) {
	require.Equal(t, []int64{3, 1, 2}, Dedupe([]int64{3, 1, 3, 2, 1}))
	require.Equal(t, []int64{4}, Dedupe([]int64{4}))
	require.Empty(t, Dedupe(nil))
}
