package routes

import (
	"github.com/labstack/echo/v4"

	"classnotify/internal/auth"
	"classnotify/internal/handlers"
)

func SetupRoutes(api *echo.Group, h *handlers.Handler, jwtSecret, workerKey string) {
	// Public routes
	api.GET("/health", h.HealthCheck)
	api.GET("/ws", h.Subscribe)

	authGroup := api.Group("/auth")
	authGroup.Use(auth.RateLimitMiddleware)
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)

	// Worker callback routes, guarded by the worker key
	internal := api.Group("/internal")
	internal.Use(auth.WorkerKeyMiddleware(workerKey))
	internal.POST("/deliveries", h.CompleteDelivery)
	internal.POST("/assignments/:id/remind", h.TriggerDueReminder)

	// Protected routes
	api.Use(auth.JWTMiddleware(jwtSecret))

	notifications := api.Group("/notifications")
	notifications.GET("", h.ListNotifications)
	notifications.GET("/stats", h.NotificationStats)
	notifications.PATCH("/:id/read", h.MarkNotificationRead)
	notifications.POST("/read-all", h.MarkAllNotificationsRead)

	classrooms := api.Group("/classrooms")
	classrooms.POST("/:id/announcements", h.CreateAnnouncement)
	classrooms.POST("/:id/assignments", h.CreateAssignment)
}
