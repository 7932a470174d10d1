package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"classnotify/internal/auth"
	"classnotify/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Subscribe upgrades to a websocket and attaches the caller to their user
// topic plus every classroom they belong to. Browsers cannot set headers
// on the handshake, so the JWT arrives as a query parameter.
func (h *Handler) Subscribe(c echo.Context) error {
	userID, err := auth.ParseToken(c.QueryParam("token"), h.jwtSecret)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
	}

	classroomIDs, err := h.resolver.ListClassroomIDs(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load subscriptions"})
	}

	topics := make([]string, 0, len(classroomIDs)+1)
	topics = append(topics, realtime.UserTopic(userID))
	for _, id := range classroomIDs {
		topics = append(topics, realtime.ClassroomTopic(id))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	session := h.hub.Subscribe(topics...)
	session.ServeConn(conn)
	return nil
}
