package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
)

type NotificationHandler struct {
	feed *service.NotificationFeed
}

func NewNotificationHandler(feed *service.NotificationFeed) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

// List returns the recent notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	response.OK(c, "Notifications retrieved", h.feed.List())
}
