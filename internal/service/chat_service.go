package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/suportebot/helpdesk/internal/auth"
	"github.com/suportebot/helpdesk/internal/bot"
	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/internal/events"
	"github.com/suportebot/helpdesk/internal/repository"
	"github.com/suportebot/helpdesk/internal/security"
	"github.com/suportebot/helpdesk/pkg/util"
)

// ChatService runs the per-ticket conversation.
type ChatService struct {
	tickets      repository.TicketRepository
	interactions repository.InteractionRepository
	dispatcher   *events.Dispatcher
	limiter      Limiter
	logger       *zap.Logger

	messageLimit  int
	messageWindow time.Duration
}

// ChatDependencies bundles collaborators for ChatService.
type ChatDependencies struct {
	TicketRepo      repository.TicketRepository
	InteractionRepo repository.InteractionRepository
	Dispatcher      *events.Dispatcher
	Limiter         Limiter
	Logger          *zap.Logger
	MessageLimit    int
	MessageWindow   time.Duration
}

func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		tickets:       deps.TicketRepo,
		interactions:  deps.InteractionRepo,
		dispatcher:    deps.Dispatcher,
		limiter:       deps.Limiter,
		logger:        deps.Logger,
		messageLimit:  deps.MessageLimit,
		messageWindow: deps.MessageWindow,
	}
}

// PostMessageResult carries everything the chat UI renders after a send.
type PostMessageResult struct {
	Message        *domain.Interaction
	BotReply       *domain.Interaction
	Intent         string
	TicketResolved bool
}

// PostMessage stores a chat message. Messages from the requester get a
// bot answer; support with chat control speaks directly and the bot
// stays silent.
func (s *ChatService) PostMessage(ctx context.Context, actor auth.Principal, ticketID, message string) (*PostMessageResult, error) {
	if err := security.ValidateUUID(ticketID); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("Chamado", nil)
		}
		return nil, util.NewInternalError(err)
	}
	if ticket.IsResolved() {
		return nil, util.NewInvalidState("Este chamado já foi resolvido e não aceita novas mensagens.")
	}
	if !actor.IsSupport() && (ticket.OwnerID == nil || *ticket.OwnerID != actor.UserID) {
		return nil, util.NewForbidden("Acesso não autorizado a este chamado.")
	}

	message = security.Sanitize(message, 500)
	if message == "" {
		return nil, util.NewValidationError("Mensagem não pode estar vazia", nil)
	}
	if len([]rune(message)) < 2 {
		return nil, util.NewValidationError("Mensagem muito curta", nil)
	}

	allowed, err := s.limiter.Allow(ctx, "message:"+actor.UserID, s.messageLimit, s.messageWindow)
	if err != nil {
		s.logger.Warn("message limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, util.NewRateLimited("Muitas mensagens em sequência. Aguarde um momento.")
	}

	now := time.Now()
	result := &PostMessageResult{}

	if actor.IsSupport() && ticket.SupportChatControl {
		actorID := actor.UserID
		interaction := &domain.Interaction{
			ID:            uuid.NewString(),
			TicketID:      ticket.ID,
			Sender:        domain.SenderSupport,
			Message:       message,
			ResponsibleID: &actorID,
			Notifiable:    true,
			CreatedAt:     now,
		}
		if err := s.interactions.Create(ctx, interaction); err != nil {
			return nil, util.NewInternalError(err)
		}
		result.Message = interaction

		s.dispatcher.Publish(ctx, events.Event{
			Type:        events.TicketMessageAdded,
			Ticket:      ticket,
			Interaction: interaction,
			ActorID:     actor.UserID,
		})
		return result, nil
	}

	interaction := &domain.Interaction{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		Sender:     domain.SenderRequester,
		Message:    message,
		Notifiable: true,
		CreatedAt:  now,
	}
	if err := s.interactions.Create(ctx, interaction); err != nil {
		return nil, util.NewInternalError(err)
	}
	result.Message = interaction

	reply := bot.MatchIntent(message, ticket, actor.Role, now.Sub(ticket.CreatedAt))
	if reply.MarkResolved {
		ticket.Status = domain.TicketStatusResolved
		ticket.UpdatedAt = now
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, util.NewInternalError(err)
		}
		s.logger.Info("ticket resolved through chat",
			zap.String("ticket_id", ticket.ID),
			zap.String("intent", reply.Intent),
		)
	}

	action := reply.Action
	botInteraction := &domain.Interaction{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		Sender:     domain.SenderBot,
		Message:    reply.Message,
		BotAction:  &action,
		Notifiable: true,
		CreatedAt:  now.Add(time.Millisecond),
	}
	if err := s.interactions.Create(ctx, botInteraction); err != nil {
		// The user's message already landed; a lost bot reply only
		// degrades the conversation.
		s.logger.Error("bot reply persist failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		botInteraction = nil
	}
	result.BotReply = botInteraction
	result.Intent = reply.Intent
	result.TicketResolved = ticket.IsResolved()

	s.dispatcher.Publish(ctx, events.Event{
		Type:        events.TicketMessageAdded,
		Ticket:      ticket,
		Interaction: interaction,
		ActorID:     actor.UserID,
	})
	return result, nil
}

// ChatLog is the chat transcript plus the ticket header the UI shows.
type ChatLog struct {
	Ticket       *domain.Ticket
	Interactions []*domain.Interaction
}

// LoadChat returns the full transcript for a ticket.
func (s *ChatService) LoadChat(ctx context.Context, actor auth.Principal, ticketID string) (*ChatLog, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	interactions, err := s.interactions.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &ChatLog{Ticket: ticket, Interactions: interactions}, nil
}

// NewMessages returns interactions past the given watermark. The
// watermark is the last interaction ID the client saw, or a timestamp.
// An unusable watermark degrades to the full transcript rather than
// failing the poll.
func (s *ChatService) NewMessages(ctx context.Context, actor auth.Principal, ticketID, afterID string, after time.Time, notifiableOnly bool) ([]*domain.Interaction, error) {
	if _, err := s.authorizedTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	interactions, err := s.fetchSince(ctx, ticketID, afterID, after)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	if !notifiableOnly {
		return interactions, nil
	}
	filtered := interactions[:0]
	for _, it := range interactions {
		if it.Notifiable {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

func (s *ChatService) fetchSince(ctx context.Context, ticketID, afterID string, after time.Time) ([]*domain.Interaction, error) {
	if afterID != "" {
		if security.ValidateUUID(afterID) == nil {
			watermark, err := s.interactions.GetByID(ctx, afterID)
			if err == nil && watermark.TicketID == ticketID {
				return s.interactions.ListSinceTime(ctx, ticketID, watermark.CreatedAt)
			}
			s.logger.Warn("stale chat watermark, returning full log",
				zap.String("ticket_id", ticketID),
				zap.String("watermark", afterID),
			)
		}
		return s.interactions.ListByTicket(ctx, ticketID)
	}
	if !after.IsZero() {
		return s.interactions.ListSinceTime(ctx, ticketID, after)
	}
	return s.interactions.ListByTicket(ctx, ticketID)
}

func (s *ChatService) authorizedTicket(ctx context.Context, actor auth.Principal, ticketID string) (*domain.Ticket, error) {
	if err := security.ValidateUUID(ticketID); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("Chamado", nil)
		}
		return nil, util.NewInternalError(err)
	}
	if !actor.IsSupport() && (ticket.OwnerID == nil || *ticket.OwnerID != actor.UserID) {
		return nil, util.NewForbidden("Acesso não autorizado a este chamado.")
	}
	return ticket, nil
}
