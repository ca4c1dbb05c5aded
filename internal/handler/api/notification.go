package api

import (
	"errors"
	"net/http"

	resdto "spotwise/internal/handler/dto/response"
	"spotwise/internal/handler/middleware"
	"spotwise/internal/usecase"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationUseCase usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} resdto.UnreadCountResponse
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationUseCase.UnreadCount(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unread count unavailable"})
		return
	}
	c.JSON(http.StatusOK, resdto.UnreadCountResponse{UnreadCount: count})
}

// @Summary List notifications
// @Tags notifications
// @Produce json
// @Success 200 {array} usecase.Notification
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	items, err := h.notificationUseCase.List(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Mark a notification seen
// @Tags notifications
// @Produce json
// @Param id path string true "Notification id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /notifications/{id}/seen [post]
func (h *NotificationHandler) MarkSeen(c *gin.Context) {
	err := h.notificationUseCase.MarkSeen(c.Request.Context(), middleware.UserEmail(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked seen"})
}
