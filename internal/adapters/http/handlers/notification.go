package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// NotificationSource returns the notifications still worth showing.
type NotificationSource interface {
	Recent() []ports.Notification
}

// NotificationHandler exposes the notification feed so a polling client can
// render toasts.
type NotificationHandler struct {
	source NotificationSource
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(source NotificationSource) *NotificationHandler {
	if source == nil {
		panic("handlers.NewNotificationHandler: source is required")
	}

	return &NotificationHandler{source: source}
}

type notificationListResponse struct {
	Notifications []ports.Notification `json:"notifications"`
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	items := h.source.Recent()
	if items == nil {
		items = []ports.Notification{}
	}

	c.JSON(http.StatusOK, notificationListResponse{Notifications: items})
}

// RegisterNotificationRoutes registers notification routes on the given router group.
func (h *NotificationHandler) RegisterNotificationRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.List)
}
