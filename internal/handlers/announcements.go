package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"classnotify/internal/auth"
	"classnotify/internal/classroom"
	"classnotify/internal/enrollment"
	"classnotify/internal/notification"
	"classnotify/internal/realtime"
)

type CreateAnnouncementRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required,max=2000"`
	// Recipients limits the fan-out to an explicit subset. Absent means
	// every enrolled student. Non-members are filtered out either way.
	Recipients []int64 `json:"recipients,omitempty"`
}

func (h *Handler) CreateAnnouncement(c echo.Context) error {
	userID := auth.UserID(c)

	classroomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid classroom id"})
	}

	var req CreateAnnouncementRequest
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
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Only the classroom teacher can post announcements"})
	}

	announcement := &classroom.Announcement{
		ClassroomID: classroomID,
		AuthorID:    userID,
		Title:       req.Title,
		Body:        req.Body,
	}
	if err := h.classrooms.CreateAnnouncement(c.Request().Context(), announcement); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create announcement"})
	}

	// The announcement is committed; a notification-path failure is
	// reported but never rolls it back.
	scope := enrollment.Scope{ClassroomID: classroomID, UserIDs: req.Recipients}
	params := notification.CreateParams{
		Title:       req.Title,
		Message:     req.Body,
		Type:        notification.TypeAnnouncement,
		ClassroomID: &classroomID,
	}
	if err := h.dispatcher.DispatchForEvent(c.Request().Context(), scope, params); err != nil {
		slog.Error("Notification dispatch failed for announcement",
			"announcement_id", announcement.ID,
			"classroom_id", classroomID,
			"error", err)
	}

	h.hub.Publish(realtime.ClassroomTopic(classroomID), "announcement.created", announcement)

	return c.JSON(http.StatusCreated, announcement)
}
