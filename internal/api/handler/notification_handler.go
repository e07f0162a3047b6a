package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

type NotificationHandler struct {
	store ports.StoreService
}

func NewNotificationHandler(store ports.StoreService) *NotificationHandler {
	return &NotificationHandler{store: store}
}

type notificationList struct {
	Unread int                   `json:"unread"`
	Items  []domain.Notification `json:"items"`
}

// List returns the caller's notifications, newest first.
//
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  notificationList
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	items := h.store.Notifications(id.ID)
	resp := notificationList{Items: items}
	for _, n := range items {
		if !n.IsRead {
			resp.Unread++
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// MarkRead flags a notification as read. Repeating the call is harmless.
//
// @Summary      Mark notification read
// @Tags         notifications
// @Param        id   path  string  true  "Notification ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	// Only the recipient may acknowledge a notification.
	target := c.Param("id")
	owned := false
	for _, n := range h.store.Notifications(id.ID) {
		if n.ID == target {
			owned = true
			break
		}
	}
	if !owned {
		return domain.ErrNotificationNotFound
	}

	if err := h.store.MarkNotificationAsRead(target); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
