package dto

import (
	"time"

	"github.com/suportebot/helpdesk/internal/bot"
	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/internal/repository"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DepartmentID string `json:"department_id"`
	Location     string `json:"location"`
}

// OnSite maps the location field; anything but "home_office" counts as
// on premises.
func (r CreateTicketRequest) OnSite() bool {
	return r.Location != "home_office"
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
	Note   string              `json:"note"`
}

// ConfirmResolutionRequest payload.
type ConfirmResolutionRequest struct {
	Satisfaction int    `json:"satisfaction"`
	Comment      string `json:"comment"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID              string               `json:"id"`
	ReadableCode    string               `json:"readable_code"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	RequesterName   string               `json:"requester_name"`
	DepartmentID    string               `json:"department_id"`
	Location        string               `json:"location"`
	Urgency         domain.TicketUrgency `json:"urgency"`
	UrgencyLabel    string               `json:"urgency_label"`
	Status          domain.TicketStatus  `json:"status"`
	StatusLabel     string               `json:"status_label"`
	OwnerID         *string              `json:"owner_id"`
	ResponsibleID   *string              `json:"responsible_id"`
	ViewedBySupport bool                 `json:"viewed_by_support"`
	SupportControl  bool                 `json:"support_chat_control"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	ResolvedAt      *time.Time           `json:"resolved_at"`
}

// FromTicket converts the domain ticket.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		ReadableCode:    t.ReadableCode,
		Title:           t.Title,
		Description:     t.Description,
		RequesterName:   t.RequesterName,
		DepartmentID:    t.DepartmentID,
		Location:        t.LocationLabel(),
		Urgency:         t.Urgency,
		UrgencyLabel:    t.UrgencyLabel(),
		Status:          t.Status,
		StatusLabel:     t.StatusLabel(),
		OwnerID:         t.OwnerID,
		ResponsibleID:   t.ResponsibleID,
		ViewedBySupport: t.ViewedBySupport,
		SupportControl:  t.SupportChatControl,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ResolvedAt:      t.ResolvedAt,
	}
}

// FromTickets converts a ticket slice.
func FromTickets(tickets []*domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, FromTicket(t))
	}
	return out
}

// BotStepResponse is one scripted opening message.
type BotStepResponse struct {
	Message string           `json:"message"`
	Action  domain.BotAction `json:"action"`
}

// CreateTicketResponse pairs the ticket with the scripted opening run
// the client replays.
type CreateTicketResponse struct {
	Ticket     TicketResponse    `json:"ticket"`
	Department string            `json:"department"`
	Opening    []BotStepResponse `json:"opening_sequence"`
}

// FromOpening converts the scripted run.
func FromOpening(steps []bot.Step) []BotStepResponse {
	out := make([]BotStepResponse, 0, len(steps))
	for _, s := range steps {
		out = append(out, BotStepResponse{Message: s.Message, Action: s.Action})
	}
	return out
}

// DepartmentResponse is the catalogue entry.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FromDepartments converts the catalogue.
func FromDepartments(depts []*domain.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(depts))
	for _, d := range depts {
		out = append(out, DepartmentResponse{ID: d.ID, Name: d.Name, Description: d.Description})
	}
	return out
}

// StatsResponse is the dashboard counter set.
type StatsResponse struct {
	Total        int64            `json:"total"`
	Open         int64            `json:"open"`
	Resolved     int64            `json:"resolved"`
	Urgent       int64            `json:"urgent"`
	Today        int64            `json:"today"`
	ByDepartment map[string]int64 `json:"by_department"`
}

// FromStats converts the aggregate.
func FromStats(stats *repository.TicketStats) StatsResponse {
	return StatsResponse{
		Total:        stats.Total,
		Open:         stats.Open,
		Resolved:     stats.Resolved,
		Urgent:       stats.Urgent,
		Today:        stats.Today,
		ByDepartment: stats.ByDepartment,
	}
}
