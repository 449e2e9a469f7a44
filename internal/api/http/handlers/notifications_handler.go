package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/suportebot/helpdesk/internal/api/dto"
	"github.com/suportebot/helpdesk/internal/auth"
	"github.com/suportebot/helpdesk/internal/service"
)

// NotificationsHandler serves the bell menu endpoints.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	feed, err := h.notifications.List(c.UserContext(), principal, service.NotificationListInput{
		UnreadOnly: c.QueryBool("unread_only"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": dto.FromNotifications(feed.Notifications),
		"unread_count":  feed.UnreadCount,
		"page":          feed.Page,
		"total_pages":   feed.TotalPages,
		"total":         feed.Total,
	})
}

func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.notifications.MarkRead(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Notificação marcada como lida!"})
}

func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	n, err := h.notifications.MarkAllRead(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Todas as notificações foram marcadas como lidas!",
		"updated": n,
	})
}

func (h *NotificationsHandler) Trim(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	removed, err := h.notifications.Trim(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notificações antigas removidas!",
		"removed": removed,
	})
}
