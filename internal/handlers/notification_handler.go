package handlers

import (
	"net/http"
	"strconv"

	"github.com/A60874022/handmade-market/backend/internal/repositories"
	"github.com/A60874022/handmade-market/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles the notification feed HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	notificationService    *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, notifService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		notificationService:    notifService,
	}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkRead)
	g.PUT("/notifications/read-all", h.MarkAllRead)
	g.DELETE("/notifications/read", h.DeleteRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// GetNotifications returns the user's feed, newest first, paginated
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, total, err := h.notificationRepository.GetByRecipient(currentUserID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": notifications,
			"total":         total,
			"page":          page,
			"limit":         limit,
		},
	})
}

// GetUnreadCount returns the badge counter
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count := h.notificationService.UnreadCount(currentUserID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"unread_count": count}})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if !h.notificationService.MarkRead(currentUserID, uint(notificationID)) {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MarkAllRead marks the user's entire feed as read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if !h.notificationService.MarkAllRead(currentUserID) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark notifications read")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteRead removes every read notification and reports the count
func (h *NotificationHandler) DeleteRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count := h.notificationService.DeleteRead(currentUserID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"deleted_count": count}})
}

// DeleteNotification removes a single notification. Unread notifications
// cannot be deleted; they have to be read first.
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if !h.notificationService.DeleteSingle(currentUserID, uint(notificationID)) {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found or not read yet")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
