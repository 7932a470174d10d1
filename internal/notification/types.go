package notification

import "time"

type NotificationType string

const (
	TypeAnnouncement  NotificationType = "announcement"
	TypeAssignment    NotificationType = "assignment"
	TypeAssignmentDue NotificationType = "assignment-due"
)

// Notification is immutable after creation except for the is_read/read_at
// pair, which transitions once.
type Notification struct {
	ID           string           `db:"id" json:"id"`
	UserID       int64            `db:"user_id" json:"user_id"`
	Title        string           `db:"title" json:"title"`
	Message      string           `db:"message" json:"message"`
	Type         NotificationType `db:"type" json:"type"`
	ClassroomID  *int64           `db:"classroom_id" json:"classroom_id,omitempty"`
	AssignmentID *int64           `db:"assignment_id" json:"assignment_id,omitempty"`
	Metadata     *string          `db:"metadata" json:"metadata,omitempty"`
	IsRead       bool             `db:"is_read" json:"is_read"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	ReadAt       *time.Time       `db:"read_at" json:"read_at,omitempty"`
}

type CreateParams struct {
	Title        string
	Message      string
	Type         NotificationType
	ClassroomID  *int64
	AssignmentID *int64
	// Metadata is an opaque serialized payload; the pipeline never
	// inspects its contents.
	Metadata *string
}

type NotificationStats struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}
