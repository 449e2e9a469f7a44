package events

import "github.com/suportebot/helpdesk/internal/domain"

type EventType string

const (
	TicketCreated       EventType = "ticket.created"
	TicketStatusChanged EventType = "ticket.status_changed"
	TicketMessageAdded  EventType = "ticket.message_added"
)

// Event carries the ticket snapshot at publish time plus event-specific
// context.
type Event struct {
	Type           EventType
	Ticket         *domain.Ticket
	DepartmentName string
	Interaction    *domain.Interaction
	PreviousStatus domain.TicketStatus
	ActorID        string
}
