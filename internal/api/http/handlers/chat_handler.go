package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/suportebot/helpdesk/internal/api/dto"
	"github.com/suportebot/helpdesk/internal/auth"
	"github.com/suportebot/helpdesk/internal/service"
	"github.com/suportebot/helpdesk/pkg/util"
)

const messageBodyLimit = 5 * 1024

// ChatHandler serves the per-ticket conversation endpoints.
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	if len(c.Body()) > messageBodyLimit {
		return util.NewPayloadTooLarge("Mensagem muito longa")
	}
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Dados inválidos", nil)
	}

	result, err := h.chat.PostMessage(c.UserContext(), principal, c.Params("id"), req.Message)
	if err != nil {
		return err
	}

	response := dto.PostMessageResponse{
		Message:        dto.FromInteraction(result.Message),
		Intent:         result.Intent,
		TicketResolved: result.TicketResolved,
	}
	if result.BotReply != nil {
		reply := dto.FromInteraction(result.BotReply)
		response.BotReply = &reply
	}
	return c.JSON(fiber.Map{"success": true, "chat": response})
}

func (h *ChatHandler) LoadChat(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	log, err := h.chat.LoadChat(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"ticket":   dto.FromTicket(log.Ticket),
		"messages": dto.FromInteractions(log.Interactions),
	})
}

// NewMessages polls for interactions past a watermark. The watermark is
// the last seen interaction id (`after`) or an RFC3339 timestamp
// (`after_time`).
func (h *ChatHandler) NewMessages(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var after time.Time
	if raw := c.Query("after_time"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			after = parsed
		}
	}

	messages, err := h.chat.NewMessages(
		c.UserContext(), principal, c.Params("id"),
		c.Query("after"), after,
		c.QueryBool("notifiable_only"),
	)
	if err != nil {
		return err
	}

	response := dto.NewMessagesResponse{Messages: dto.FromInteractions(messages)}
	if len(messages) > 0 {
		response.Watermark = messages[len(messages)-1].ID
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"messages":  response.Messages,
		"watermark": response.Watermark,
	})
}
