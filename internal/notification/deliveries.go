package notification

import (
	"context"
	"fmt"
)

// RecordDelivery stores the worker's delivery receipt for a batch.
// Keyed by correlation id, so a redelivered batch records nothing the
// second time. Returns whether this call inserted the receipt.
func (s *Store) RecordDelivery(ctx context.Context, correlationID string, recipientCount int, notificationType string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_deliveries (correlation_id, recipient_count, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (correlation_id) DO NOTHING
	`, correlationID, recipientCount, notificationType)
	if err != nil {
		return false, fmt.Errorf("failed to record delivery receipt: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return rows == 1, nil
}
