package handlers

import (
	"net/http"

	"picoworker_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", h.RequireAuth, h.List)
}

func (h *NotificationHandler) List(c *gin.Context) {
	caller, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	notes, err := h.notificationService.ListForUser(c.Request.Context(), h.GetDB(c), caller, ParseQueryInt(c, "limit", 0))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}
