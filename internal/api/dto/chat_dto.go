package dto

import (
	"time"

	"github.com/suportebot/helpdesk/internal/domain"
)

// PostMessageRequest payload.
type PostMessageRequest struct {
	Message string `json:"message"`
}

// InteractionResponse is one chat entry.
type InteractionResponse struct {
	ID            string                   `json:"id"`
	TicketID      string                   `json:"ticket_id"`
	Sender        domain.InteractionSender `json:"sender"`
	Message       string                   `json:"message"`
	BotAction     *domain.BotAction        `json:"bot_action,omitempty"`
	ResponsibleID *string                  `json:"responsible_id,omitempty"`
	Notifiable    bool                     `json:"notifiable"`
	CreatedAt     time.Time                `json:"created_at"`
}

// FromInteraction converts one chat entry.
func FromInteraction(it *domain.Interaction) InteractionResponse {
	return InteractionResponse{
		ID:            it.ID,
		TicketID:      it.TicketID,
		Sender:        it.Sender,
		Message:       it.Message,
		BotAction:     it.BotAction,
		ResponsibleID: it.ResponsibleID,
		Notifiable:    it.Notifiable,
		CreatedAt:     it.CreatedAt,
	}
}

// FromInteractions converts a transcript.
func FromInteractions(interactions []*domain.Interaction) []InteractionResponse {
	out := make([]InteractionResponse, 0, len(interactions))
	for _, it := range interactions {
		out = append(out, FromInteraction(it))
	}
	return out
}

// PostMessageResponse is the chat echo plus the bot's answer.
type PostMessageResponse struct {
	Message        InteractionResponse  `json:"sent"`
	BotReply       *InteractionResponse `json:"bot_reply,omitempty"`
	Intent         string               `json:"intent,omitempty"`
	TicketResolved bool                 `json:"ticket_resolved"`
}

// NewMessagesResponse is the polling payload. Watermark is the newest
// interaction id the client should echo back next time.
type NewMessagesResponse struct {
	Messages  []InteractionResponse `json:"messages"`
	Watermark string                `json:"watermark,omitempty"`
}
