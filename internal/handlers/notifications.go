package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"classnotify/internal/auth"
	"classnotify/internal/notification"
)

func (h *Handler) ListNotifications(c echo.Context) error {
	userID := auth.UserID(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	notifications, err := h.notifications.List(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list notifications"})
	}

	return c.JSON(http.StatusOK, notifications)
}

func (h *Handler) NotificationStats(c echo.Context) error {
	userID := auth.UserID(c)

	stats, err := h.notifications.Stats(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch notification stats"})
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) MarkNotificationRead(c echo.Context) error {
	userID := auth.UserID(c)
	notificationID := c.Param("id")

	err := h.notifications.MarkRead(c.Request().Context(), notificationID, userID)
	// A foreign row answers exactly like a missing one.
	if errors.Is(err, notification.ErrNotFound) || errors.Is(err, notification.ErrForbidden) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to mark notification read"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "read"})
}

func (h *Handler) MarkAllNotificationsRead(c echo.Context) error {
	userID := auth.UserID(c)

	updated, err := h.notifications.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to mark notifications read"})
	}

	return c.JSON(http.StatusOK, map[string]int64{"updated": updated})
}
