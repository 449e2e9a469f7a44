package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/suportebot/helpdesk/internal/api/dto"
	"github.com/suportebot/helpdesk/internal/auth"
	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/internal/service"
	"github.com/suportebot/helpdesk/pkg/util"
)

const createBodyLimit = 10 * 1024

// TicketsHandler serves the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	departments *service.DepartmentService
}

func NewTicketsHandler(tickets *service.TicketService, departments *service.DepartmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, departments: departments}
}

func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	if len(c.Body()) > createBodyLimit {
		return util.NewPayloadTooLarge("Payload muito grande")
	}
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Dados inválidos", nil)
	}

	result, err := h.tickets.CreateTicket(c.UserContext(), principal, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		OnSite:       req.OnSite(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":          true,
		"message":          "Chamado criado com sucesso!",
		"ticket":           dto.FromTicket(result.Ticket),
		"department":       result.DepartmentName,
		"opening_sequence": dto.FromOpening(result.Opening),
	})
}

func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	ticket, err := h.tickets.GetTicket(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.FromTicket(ticket)})
}

func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	result, err := h.tickets.ListTickets(c.UserContext(), principal, service.TicketListInput{
		Status:       domain.TicketStatus(c.Query("status")),
		Urgency:      domain.TicketUrgency(c.Query("urgency")),
		DepartmentID: c.Query("department_id"),
		Period:       c.Query("period"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"tickets":     dto.FromTickets(result.Tickets),
		"page":        result.Page,
		"total_pages": result.TotalPages,
		"total":       result.Total,
	})
}

// Status is a lightweight poll endpoint for chat clients tracking a
// single ticket.
func (h *TicketsHandler) Status(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	ticket, err := h.tickets.GetTicket(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"status":       ticket.Status,
		"status_label": ticket.StatusLabel(),
		"urgency":      ticket.Urgency,
		"resolved_at":  ticket.ResolvedAt,
	})
}

func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Dados inválidos", nil)
	}

	ticket, err := h.tickets.ChangeStatus(c.UserContext(), principal, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Status atualizado com sucesso!",
		"ticket":  dto.FromTicket(ticket),
	})
}

func (h *TicketsHandler) MarkViewed(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.tickets.MarkViewed(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Chamado marcado como visualizado!"})
}

func (h *TicketsHandler) AssumeControl(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	ticket, err := h.tickets.AssumeControl(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Controle do chat assumido com sucesso!",
		"ticket":  dto.FromTicket(ticket),
	})
}

func (h *TicketsHandler) Intermediate(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	ticket, err := h.tickets.Intermediate(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Chat intermediado com sucesso!",
		"ticket":  dto.FromTicket(ticket),
	})
}

func (h *TicketsHandler) ConfirmBySupport(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	ticket, err := h.tickets.ConfirmBySupport(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Chamado marcado como resolvido com sucesso!",
		"ticket":  dto.FromTicket(ticket),
	})
}

func (h *TicketsHandler) ConfirmByRequester(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.ConfirmResolutionRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Dados inválidos", nil)
	}

	ticket, err := h.tickets.ConfirmByRequester(c.UserContext(), principal, c.Params("id"), service.ConfirmResolutionInput{
		Satisfaction: req.Satisfaction,
		Comment:      req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Chamado finalizado com sucesso!",
		"ticket":  dto.FromTicket(ticket),
	})
}

func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	stats, err := h.tickets.Stats(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "stats": dto.FromStats(stats)})
}

func (h *TicketsHandler) Departments(c *fiber.Ctx) error {
	depts, err := h.departments.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "departments": dto.FromDepartments(depts)})
}
