package enrollment

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Scope names a set of recipients inside one classroom. A nil UserIDs
// means every enrolled student; a non-nil list is always intersected with
// enrollment so notifications never leak to non-members.
type Scope struct {
	ClassroomID int64
	UserIDs     []int64
}

type Resolver struct {
	db *sqlx.DB
}

func NewResolver(db *sqlx.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the distinct user ids the scope names. Teachers are
// never implicit recipients. Resolution reads committed enrollment state
// directly; an empty result is a valid no-op outcome.
func (r *Resolver) Resolve(ctx context.Context, scope Scope) ([]int64, error) {
	var (
		userIDs []int64
		err     error
	)

	if scope.UserIDs == nil {
		err = r.db.SelectContext(ctx, &userIDs, `
			SELECT user_id FROM classroom_enrollments
			WHERE classroom_id = $1 AND role = $2
		`, scope.ClassroomID, RoleStudent)
	} else {
		if len(scope.UserIDs) == 0 {
			return nil, nil
		}
		err = r.db.SelectContext(ctx, &userIDs, `
			SELECT user_id FROM classroom_enrollments
			WHERE classroom_id = $1 AND role = $2 AND user_id = ANY($3)
		`, scope.ClassroomID, RoleStudent, pq.Array(scope.UserIDs))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients for classroom %d: %w", scope.ClassroomID, err)
	}

	return userIDs, nil
}

// ListClassroomIDs returns every classroom the user belongs to, in any
// role. The websocket handler uses it to join classroom topics.
func (r *Resolver) ListClassroomIDs(ctx context.Context, userID int64) ([]int64, error) {
	var classroomIDs []int64
	err := r.db.SelectContext(ctx, &classroomIDs, `
		SELECT classroom_id FROM classroom_enrollments WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classrooms for user %d: %w", userID, err)
	}
	return classroomIDs, nil
}

// IsTeacher reports whether the user holds the teacher role in the
// classroom. Announcement and assignment triggers require it.
func (r *Resolver) IsTeacher(ctx context.Context, classroomID, userID int64) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM classroom_enrollments
		WHERE classroom_id = $1 AND user_id = $2 AND role = $3
	`, classroomID, userID, RoleTeacher)
	if err != nil {
		return false, fmt.Errorf("failed to check teacher role: %w", err)
	}
	return count > 0, nil
}
