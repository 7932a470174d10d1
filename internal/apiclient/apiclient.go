package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"classnotify/internal/queue"
)

// Client is the worker's callback channel into the API. It authenticates
// with the static worker key, never a user session.
type Client struct {
	baseURL   string
	workerKey string
	http      *http.Client
}

func New(baseURL, workerKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		workerKey: workerKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// CompleteDelivery records the batch as delivered. The API keeps the
// receipt keyed by correlation id, so replaying the same batch is a
// no-op on its side too.
func (c *Client) CompleteDelivery(ctx context.Context, payload queue.NotificationDeliveryPayload) error {
	return c.post(ctx, "/api/v1/internal/deliveries", payload)
}

// TriggerDueReminder asks the API to fan out assignment-due
// notifications for the assignment.
func (c *Client) TriggerDueReminder(ctx context.Context, assignmentID int64) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/internal/assignments/%d/remind", assignmentID), nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("X-Worker-Key", c.workerKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	return nil
}
