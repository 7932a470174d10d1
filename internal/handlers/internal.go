package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"classnotify/internal/classroom"
	"classnotify/internal/dispatch"
	"classnotify/internal/enrollment"
	"classnotify/internal/notification"
	"classnotify/internal/queue"
)

// CompleteDelivery records the worker's receipt for a delivered batch.
// Replays of the same correlation id are accepted and do nothing.
func (h *Handler) CompleteDelivery(c echo.Context) error {
	var payload queue.NotificationDeliveryPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if payload.CorrelationID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "correlation_id is required"})
	}

	inserted, err := h.notifications.RecordDelivery(
		c.Request().Context(), payload.CorrelationID, len(payload.Recipients), payload.Type)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record delivery"})
	}

	status := "recorded"
	if !inserted {
		status = "duplicate"
	}
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

// TriggerDueReminder fans out assignment-due notifications for the
// assignment, resolved against current enrollment state.
func (h *Handler) TriggerDueReminder(c echo.Context) error {
	assignmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid assignment id"})
	}

	assignment, err := h.classrooms.GetAssignment(c.Request().Context(), assignmentID)
	if errors.Is(err, classroom.ErrAssignmentNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Assignment not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load assignment"})
	}

	scope := enrollment.Scope{ClassroomID: assignment.ClassroomID}
	params := notification.CreateParams{
		Title:        "Assignment due soon: " + assignment.Title,
		Message:      assignment.Body,
		Type:         notification.TypeAssignmentDue,
		ClassroomID:  &assignment.ClassroomID,
		AssignmentID: &assignment.ID,
	}

	err = h.dispatcher.DispatchForEvent(c.Request().Context(), scope, params)
	if errors.Is(err, dispatch.ErrDegradedDelivery) {
		// Rows and pushes are in place; only the next broker hop failed.
		slog.Warn("Due reminder dispatched with degraded delivery", "assignment_id", assignmentID, "error", err)
		return c.JSON(http.StatusOK, map[string]string{"status": "dispatched"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to dispatch due reminder"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "dispatched"})
}
