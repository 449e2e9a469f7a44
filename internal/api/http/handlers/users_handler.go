package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/suportebot/helpdesk/internal/api/dto"
	"github.com/suportebot/helpdesk/internal/service"
	"github.com/suportebot/helpdesk/pkg/util"
)

// UsersHandler serves registration and login.
type UsersHandler struct {
	auth *service.AuthService
}

func NewUsersHandler(auth *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: auth}
}

func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Dados inválidos", nil)
	}

	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username:   req.Username,
		AccessCode: req.AccessCode,
		ClientIP:   c.IP(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Cadastro realizado com sucesso!",
		"token":   result.Token,
		"user":    dto.FromUser(result.User),
	})
}

func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Dados inválidos", nil)
	}

	result, err := h.auth.Login(c.UserContext(), service.LoginInput{
		Username:   req.Username,
		AccessCode: req.AccessCode,
		ClientIP:   c.IP(),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"token":   result.Token,
		"user":    dto.FromUser(result.User),
	})
}
