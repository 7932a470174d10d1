package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"classnotify/internal/auth"
	"classnotify/internal/classroom"
	"classnotify/internal/enrollment"
	"classnotify/internal/notification"
	"classnotify/internal/realtime"
)

type CreateAssignmentRequest struct {
	Title string     `json:"title" validate:"required,max=200"`
	Body  string     `json:"body" validate:"required,max=2000"`
	DueAt *time.Time `json:"due_at,omitempty"`
}

// dueReminderLead is how long before due_at the reminder task fires.
const dueReminderLead = 24 * time.Hour

func (h *Handler) CreateAssignment(c echo.Context) error {
	userID := auth.UserID(c)

	classroomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid classroom id"})
	}

	var req CreateAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := auth.Validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Title and body are required"})
	}

	isTeacher, err := h.resolver.IsTeacher(c.Request().Context(), classroomID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to check classroom role"})
	}
	if !isTeacher {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Only the classroom teacher can post assignments"})
	}

	assignment := &classroom.Assignment{
		ClassroomID: classroomID,
		AuthorID:    userID,
		Title:       req.Title,
		Body:        req.Body,
		DueAt:       req.DueAt,
	}
	if err := h.classrooms.CreateAssignment(c.Request().Context(), assignment); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create assignment"})
	}

	scope := enrollment.Scope{ClassroomID: classroomID}
	params := notification.CreateParams{
		Title:        req.Title,
		Message:      req.Body,
		Type:         notification.TypeAssignment,
		ClassroomID:  &classroomID,
		AssignmentID: &assignment.ID,
	}
	if err := h.dispatcher.DispatchForEvent(c.Request().Context(), scope, params); err != nil {
		slog.Error("Notification dispatch failed for assignment",
			"assignment_id", assignment.ID,
			"classroom_id", classroomID,
			"error", err)
	}

	if assignment.DueAt != nil {
		remindAt := assignment.DueAt.Add(-dueReminderLead)
		if err := h.queue.ScheduleDueReminder(c.Request().Context(), assignment.ID, remindAt); err != nil {
			slog.Error("Failed to schedule due reminder",
				"assignment_id", assignment.ID,
				"remind_at", remindAt,
				"error", err)
		}
	}

	h.hub.Publish(realtime.ClassroomTopic(classroomID), "assignment.created", assignment)

	return c.JSON(http.StatusCreated, assignment)
}
