package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/suportebot/helpdesk/internal/api/http/handlers"
	"github.com/suportebot/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Users         *handlers.UsersHandler
	Tickets       *handlers.TicketsHandler
	Chat          *handlers.ChatHandler
	Notifications *handlers.NotificationsHandler
	Tokens        *auth.TokenManager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Users.Register)
	app.Post("/auth/login", cfg.Users.Login)

	api := app.Group("", auth.Middleware(cfg.Tokens))

	api.Get("/departments", cfg.Tickets.Departments)

	api.Post("/tickets", cfg.Tickets.Create)
	api.Get("/tickets", cfg.Tickets.List)
	api.Get("/tickets/:id", cfg.Tickets.Get)
	api.Get("/tickets/:id/status", cfg.Tickets.Status)
	api.Post("/tickets/:id/status", cfg.Tickets.ChangeStatus)
	api.Post("/tickets/:id/confirm-resolution", cfg.Tickets.ConfirmByRequester)

	support := api.Group("", auth.RequireSupport())
	support.Post("/tickets/:id/view", cfg.Tickets.MarkViewed)
	support.Post("/tickets/:id/control", cfg.Tickets.AssumeControl)
	support.Post("/tickets/:id/intermediate", cfg.Tickets.Intermediate)
	support.Post("/tickets/:id/confirm", cfg.Tickets.ConfirmBySupport)
	support.Get("/dashboard/stats", cfg.Tickets.Stats)

	api.Post("/tickets/:id/messages", cfg.Chat.PostMessage)
	api.Get("/tickets/:id/chat", cfg.Chat.LoadChat)
	api.Get("/tickets/:id/messages", cfg.Chat.NewMessages)

	api.Get("/notifications", cfg.Notifications.List)
	support.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
	support.Post("/notifications/read-all", cfg.Notifications.MarkAllRead)
	support.Post("/notifications/trim", cfg.Notifications.Trim)
}
