package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "em_andamento"
	TicketStatusResolved TicketStatus = "resolvido"
)

// ValidStatus reports whether s is a recognized ticket status.
func ValidStatus(s TicketStatus) bool {
	return s == TicketStatusOpen || s == TicketStatusResolved
}

// TicketUrgency is the priority tier derived once at creation.
type TicketUrgency string

const (
	UrgencyLow    TicketUrgency = "baixa"
	UrgencyMedium TicketUrgency = "media"
	UrgencyUrgent TicketUrgency = "urgente"
)

var urgentKeywords = []string{
	"urgente", "crítico", "critico", "emergência", "emergencia",
	"parado", "fora do ar", "queda", "não funciona", "nao funciona",
	"quebrado", "prioridade", "impeditivo", "bloqueado", "crash",
	"erro crítico", "sistema down", "indisponível", "paralisado",
}

var lowKeywords = []string{
	"dúvida", "duvida", "consulta", "informação", "informacao",
	"sugestão", "sugestao", "melhoria", "questionamento",
	"orientação", "orientacao", "curiosidade", "dica",
}

// ClassifyUrgency scans the lowercased title and description. Urgent
// keywords win over low keywords; anything else is medium. The result is
// fixed at creation and never recomputed.
func ClassifyUrgency(title, description string) TicketUrgency {
	text := strings.ToLower(title) + " " + strings.ToLower(description)
	for _, kw := range urgentKeywords {
		if strings.Contains(text, kw) {
			return UrgencyUrgent
		}
	}
	for _, kw := range lowKeywords {
		if strings.Contains(text, kw) {
			return UrgencyLow
		}
	}
	return UrgencyMedium
}

// Ticket is the aggregate for help requests.
type Ticket struct {
	ID                 string
	ReadableCode       string
	Title              string
	Description        string
	RequesterName      string
	DepartmentID       string
	OnSite             bool
	Urgency            TicketUrgency
	Status             TicketStatus
	OwnerID            *string
	ResponsibleID      *string
	ViewedBySupport    bool
	SupportChatControl bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResolvedAt         *time.Time
}

// IsResolved reports whether the ticket reached its terminal state.
func (t *Ticket) IsResolved() bool {
	return t != nil && t.Status == TicketStatusResolved
}

// LocationLabel renders the on-site flag the way the chat card shows it.
func (t *Ticket) LocationLabel() string {
	if t.OnSite {
		return "Presencial"
	}
	return "Home Office"
}

// UrgencyLabel returns the display form of the urgency tier.
func (t *Ticket) UrgencyLabel() string {
	switch t.Urgency {
	case UrgencyLow:
		return "Baixa"
	case UrgencyUrgent:
		return "Urgente"
	default:
		return "Média"
	}
}

// StatusLabel returns the display form of the status.
func (t *Ticket) StatusLabel() string {
	if t.Status == TicketStatusResolved {
		return "Resolvido"
	}
	return "Em Andamento"
}
