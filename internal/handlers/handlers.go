package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"classnotify/internal/auth"
	"classnotify/internal/classroom"
	"classnotify/internal/dispatch"
	"classnotify/internal/enrollment"
	"classnotify/internal/notification"
	"classnotify/internal/queue"
	"classnotify/internal/realtime"
)

// Handler bundles the collaborators the HTTP surface needs. Everything is
// constructor-injected; tests swap in fakes.
type Handler struct {
	auth          *auth.Service
	notifications *notification.Store
	classrooms    *classroom.Store
	resolver      *enrollment.Resolver
	dispatcher    *dispatch.Dispatcher
	queue         *queue.Client
	hub           *realtime.Hub
	jwtSecret     string
}

func New(
	authService *auth.Service,
	notifications *notification.Store,
	classrooms *classroom.Store,
	resolver *enrollment.Resolver,
	dispatcher *dispatch.Dispatcher,
	queueClient *queue.Client,
	hub *realtime.Hub,
	jwtSecret string,
) *Handler {
	return &Handler{
		auth:          authService,
		notifications: notifications,
		classrooms:    classrooms,
		resolver:      resolver,
		dispatcher:    dispatcher,
		queue:         queueClient,
		hub:           hub,
		jwtSecret:     jwtSecret,
	}
}

func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
