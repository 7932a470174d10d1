package classroom

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrAssignmentNotFound = errors.New("assignment not found")

type Announcement struct {
	ID          int64     `db:"id" json:"id"`
	ClassroomID int64     `db:"classroom_id" json:"classroom_id"`
	AuthorID    int64     `db:"author_id" json:"author_id"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Assignment struct {
	ID          int64      `db:"id" json:"id"`
	ClassroomID int64      `db:"classroom_id" json:"classroom_id"`
	AuthorID    int64      `db:"author_id" json:"author_id"`
	Title       string     `db:"title" json:"title"`
	Body        string     `db:"body" json:"body"`
	DueAt       *time.Time `db:"due_at" json:"due_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Store persists the domain entities whose creation triggers a dispatch.
// The entity is always committed before the dispatcher runs, so a
// notification-path failure never rolls it back.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateAnnouncement(ctx context.Context, a *Announcement) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO announcements (classroom_id, author_id, title, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.ClassroomID, a.AuthorID, a.Title, a.Body).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (s *Store) CreateAssignment(ctx context.Context, a *Assignment) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO assignments (classroom_id, author_id, title, body, due_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.ClassroomID, a.AuthorID, a.Title, a.Body, a.DueAt).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (*Assignment, error) {
	a := &Assignment{}
	err := s.db.GetContext(ctx, a, `
		SELECT id, classroom_id, author_id, title, body, due_at, created_at
		FROM assignments WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment %d: %w", id, err)
	}
	return a, nil
}
