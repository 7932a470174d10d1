package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("notification not found")
	// ErrForbidden means the row exists but belongs to another user.
	// Handlers surface it exactly like ErrNotFound so ownership of
	// foreign ids is never revealed.
	ErrForbidden = errors.New("notification belongs to another user")
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Create persists a single notification row. Timestamps are assigned by
// the database, not the caller.
func (s *Store) Create(ctx context.Context, userID int64, p CreateParams) (*Notification, error) {
	created, err := s.CreateBatch(ctx, []int64{userID}, p)
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// CreateBatch persists one row per user id in a single transaction.
// An empty slice is a valid no-op, not an error.
func (s *Store) CreateBatch(ctx context.Context, userIDs []int64, p CreateParams) ([]Notification, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, classroom_id, assignment_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	notifications := make([]Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		n := Notification{
			ID:           uuid.New().String(),
			UserID:       userID,
			Title:        p.Title,
			Message:      p.Message,
			Type:         p.Type,
			ClassroomID:  p.ClassroomID,
			AssignmentID: p.AssignmentID,
			Metadata:     p.Metadata,
		}

		err := stmt.QueryRowxContext(ctx,
			n.ID, n.UserID, n.Title, n.Message, n.Type,
			n.ClassroomID, n.AssignmentID, n.Metadata,
		).Scan(&n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert notification for user %d: %w", userID, err)
		}

		notifications = append(notifications, n)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit notifications: %w", err)
	}

	return notifications, nil
}

// List returns the user's notifications, newest first.
func (s *Store) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	notifications := []Notification{}
	err := s.db.SelectContext(ctx, &notifications, `
		SELECT id, user_id, title, message, type, classroom_id, assignment_id, metadata, is_read, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead transitions is_read false->true once. Marking an already-read
// notification again is a no-op for its owner. The conditional update
// keeps duplicate read-receipts idempotent under concurrency.
func (s *Store) MarkRead(ctx context.Context, notificationID string, userID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2 AND is_read = FALSE
	`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 1 {
		return nil
	}

	// Nothing updated: missing row, foreign row, or already read.
	var ownerID int64
	err = s.db.GetContext(ctx, &ownerID, `SELECT user_id FROM notifications WHERE id = $1`, notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up notification: %w", err)
	}
	if ownerID != userID {
		return ErrForbidden
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read. Returns
// the number of rows transitioned.
func (s *Store) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Stats(ctx context.Context, userID int64) (*NotificationStats, error) {
	stats := &NotificationStats{}
	err := s.db.QueryRowxContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_read = FALSE)
		FROM notifications
		WHERE user_id = $1
	`, userID).Scan(&stats.Total, &stats.Unread)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notification stats: %w", err)
	}
	return stats, nil
}
