package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/suportebot/helpdesk/internal/bot"
	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/internal/events"
	"github.com/suportebot/helpdesk/internal/repository"
)

// EscalationScheduler arms two deferred follow-up checks per ticket.
// The first runs after TimeCheckDelay; only when it actually posts its
// reminder is the urgent check armed, UrgentCheckDelay later. Both
// checks are idempotent through the tagged bot interactions, so a
// restarted process or a duplicate timer never posts twice.
type EscalationScheduler struct {
	tickets      repository.TicketRepository
	interactions repository.InteractionRepository
	logger       *zap.Logger

	timeCheckDelay   time.Duration
	urgentCheckDelay time.Duration
}

// EscalationDependencies bundles collaborators for the scheduler.
type EscalationDependencies struct {
	TicketRepo       repository.TicketRepository
	InteractionRepo  repository.InteractionRepository
	Logger           *zap.Logger
	TimeCheckDelay   time.Duration
	UrgentCheckDelay time.Duration
}

func NewEscalationScheduler(deps EscalationDependencies) *EscalationScheduler {
	return &EscalationScheduler{
		tickets:          deps.TicketRepo,
		interactions:     deps.InteractionRepo,
		logger:           deps.Logger,
		timeCheckDelay:   deps.TimeCheckDelay,
		urgentCheckDelay: deps.UrgentCheckDelay,
	}
}

// RegisterHandlers arms the first check whenever a ticket is created.
func (s *EscalationScheduler) RegisterHandlers(dispatcher *events.Dispatcher) {
	dispatcher.Subscribe(events.TicketCreated, func(_ context.Context, event events.Event) {
		s.Arm(event.Ticket.ID)
	})
}

// Arm schedules the time check for a ticket.
func (s *EscalationScheduler) Arm(ticketID string) {
	time.AfterFunc(s.timeCheckDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if s.RunTimeCheck(ctx, ticketID) {
			s.armUrgent(ticketID)
		}
	})
	s.logger.Info("escalation armed",
		zap.String("ticket_id", ticketID),
		zap.Duration("delay", s.timeCheckDelay),
	)
}

func (s *EscalationScheduler) armUrgent(ticketID string) {
	time.AfterFunc(s.urgentCheckDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.RunUrgentCheck(ctx, ticketID)
	})
}

// RunTimeCheck posts the ten-minute reminder when the ticket is still
// open and no reminder exists yet. It reports whether the reminder was
// posted, which gates the urgent follow-up.
func (s *EscalationScheduler) RunTimeCheck(ctx context.Context, ticketID string) bool {
	return s.runCheck(ctx, ticketID, domain.BotActionTimeCheck, bot.TimeCheckMessage())
}

// RunUrgentCheck posts the fifteen-minute reminder under the same rules.
func (s *EscalationScheduler) RunUrgentCheck(ctx context.Context, ticketID string) bool {
	return s.runCheck(ctx, ticketID, domain.BotActionUrgentCheck, bot.UrgentCheckMessage())
}

func (s *EscalationScheduler) runCheck(ctx context.Context, ticketID string, action domain.BotAction, message string) bool {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("escalation check on missing ticket", zap.String("ticket_id", ticketID))
		} else {
			s.logger.Error("escalation check failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
		return false
	}
	if ticket.IsResolved() {
		return false
	}

	exists, err := s.interactions.ExistsByTicketAndAction(ctx, ticketID, action)
	if err != nil {
		s.logger.Error("escalation dedup check failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}
	if exists {
		return false
	}

	if err := s.interactions.Create(ctx, &domain.Interaction{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		Sender:     domain.SenderBot,
		Message:    message,
		BotAction:  &action,
		Notifiable: false,
		CreatedAt:  time.Now(),
	}); err != nil {
		s.logger.Error("escalation reminder persist failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}

	s.logger.Info("escalation reminder posted",
		zap.String("ticket_id", ticketID),
		zap.String("action", string(action)),
	)
	return true
}
