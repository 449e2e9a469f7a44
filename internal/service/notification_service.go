package service

import (
	"context"
	"errors"
	"fmt"
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

// NotificationService fans out ticket events and serves the bell menu.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	logger        *zap.Logger
}

func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		logger:        logger,
	}
}

// RegisterHandlers wires the service into the event bus. All handlers
// are best effort: a failed notification never fails the operation that
// triggered it.
func (s *NotificationService) RegisterHandlers(dispatcher *events.Dispatcher) {
	dispatcher.Subscribe(events.TicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.TicketStatusChanged, s.onStatusChanged)
	dispatcher.Subscribe(events.TicketMessageAdded, s.onMessageAdded)
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) {
	ticket := event.Ticket

	supporters, err := s.users.ListByRole(ctx, domain.RoleSupport)
	if err != nil {
		s.logger.Error("support broadcast skipped", zap.Error(err))
	} else {
		broadcastID := uuid.NewString()
		message := bot.NewTicketBroadcast(ticket, event.DepartmentName)
		for _, supporter := range supporters {
			s.store(ctx, &domain.Notification{
				ID:          uuid.NewString(),
				UserID:      supporter.ID,
				TicketID:    ticket.ID,
				Message:     message,
				Type:        domain.NotificationNewTicket,
				BroadcastID: &broadcastID,
				CreatedAt:   time.Now(),
			})
		}
	}

	if ticket.OwnerID != nil {
		s.store(ctx, &domain.Notification{
			ID:       uuid.NewString(),
			UserID:   *ticket.OwnerID,
			TicketID: ticket.ID,
			Message: fmt.Sprintf("✅ **SEU CHAMADO FOI CRIADO!**<br>📝 %s<br>🏢 %s<br>🆔 %s<br><br>Aguarde enquanto nossa equipe entra em contato.",
				ticket.Title, event.DepartmentName, ticket.ReadableCode),
			Type:      domain.NotificationMyTicketCreated,
			CreatedAt: time.Now(),
		})
	}
}

func (s *NotificationService) onStatusChanged(ctx context.Context, event events.Event) {
	ticket := event.Ticket
	if ticket.OwnerID == nil || *ticket.OwnerID == event.ActorID {
		return
	}
	s.store(ctx, &domain.Notification{
		ID:       uuid.NewString(),
		UserID:   *ticket.OwnerID,
		TicketID: ticket.ID,
		Message: fmt.Sprintf("📊 **STATUS ATUALIZADO**<br>🆔 %s<br>📝 %s<br>Novo status: %s",
			ticket.ReadableCode, ticket.Title, ticket.StatusLabel()),
		Type:      domain.NotificationUpdate,
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) onMessageAdded(ctx context.Context, event events.Event) {
	if event.Interaction == nil || !event.Interaction.Notifiable {
		return
	}
	ticket := event.Ticket

	var target *string
	switch event.Interaction.Sender {
	case domain.SenderSupport:
		target = ticket.OwnerID
	case domain.SenderRequester:
		target = ticket.ResponsibleID
	default:
		return
	}
	if target == nil || *target == event.ActorID {
		return
	}

	s.store(ctx, &domain.Notification{
		ID:       uuid.NewString(),
		UserID:   *target,
		TicketID: ticket.ID,
		Message: fmt.Sprintf("💬 **NOVA MENSAGEM**<br>🆔 %s<br>%s",
			ticket.ReadableCode, stringPreview(event.Interaction.Message, 80)),
		Type:      domain.NotificationNewMessage,
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) store(ctx context.Context, notification *domain.Notification) {
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Error("notification dropped",
			zap.String("user_id", notification.UserID),
			zap.String("ticket_id", notification.TicketID),
			zap.Error(err),
		)
	}
}

// NotificationFeed is the bell menu payload.
type NotificationFeed struct {
	Notifications []*domain.Notification
	UnreadCount   int64
	Page          int
	TotalPages    int
	Total         int64
}

// NotificationListInput selects a slice of the feed. Page is 1-based
// and snaps to the last page when it runs past the end.
type NotificationListInput struct {
	UnreadOnly bool
	Page       int
	Limit      int
}

// List returns the actor's notifications, newest first. Support sees
// everything addressed to them; collaborators see the feed through the
// tickets they own. Retention keeps feeds small, so pagination happens
// in memory over the fetched slice.
func (s *NotificationService) List(ctx context.Context, actor auth.Principal, input NotificationListInput) (*NotificationFeed, error) {
	var (
		notifications []*domain.Notification
		err           error
	)
	var unread int64
	if actor.IsSupport() {
		notifications, err = s.notifications.ListByUser(ctx, actor.UserID, input.UnreadOnly)
		if err == nil {
			unread, err = s.notifications.CountUnread(ctx, actor.UserID)
		}
	} else {
		notifications, err = s.notifications.ListByTicketOwner(ctx, actor.UserID, input.UnreadOnly)
		if err == nil {
			unread, err = s.notifications.CountUnreadByTicketOwner(ctx, actor.UserID)
		}
	}
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	total := int64(len(notifications))
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}
	page := input.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(notifications) {
		start = len(notifications)
	}
	if end > len(notifications) {
		end = len(notifications)
	}

	return &NotificationFeed{
		Notifications: notifications[start:end],
		UnreadCount:   unread,
		Page:          page,
		TotalPages:    totalPages,
		Total:         total,
	}, nil
}

// MarkRead flags one notification as read. Management is a support
// capability; collaborators only ever read their feed.
func (s *NotificationService) MarkRead(ctx context.Context, actor auth.Principal, notificationID string) error {
	if !domain.CanManageNotifications(actor.Role) {
		return util.NewForbidden("Apenas usuários de suporte podem gerenciar notificações.")
	}
	if err := security.ValidateUUID(notificationID); err != nil {
		return err
	}

	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("Notificação", nil)
		}
		return util.NewInternalError(err)
	}
	if notification.UserID != actor.UserID {
		return util.NewForbidden("Esta notificação pertence a outro usuário.")
	}
	if notification.Read {
		return nil
	}
	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		return util.NewInternalError(err)
	}
	return nil
}

// MarkAllRead flags every unread notification of the actor.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor auth.Principal) (int64, error) {
	if !domain.CanManageNotifications(actor.Role) {
		return 0, util.NewForbidden("Apenas usuários de suporte podem gerenciar notificações.")
	}
	n, err := s.notifications.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, util.NewInternalError(err)
	}
	return n, nil
}

// Trim discards everything beyond the actor's newest notifications.
func (s *NotificationService) Trim(ctx context.Context, actor auth.Principal) (int64, error) {
	if !domain.CanManageNotifications(actor.Role) {
		return 0, util.NewForbidden("Apenas usuários de suporte podem gerenciar notificações.")
	}
	removed, err := s.notifications.TrimToNewest(ctx, actor.UserID, domain.NotificationRetention)
	if err != nil {
		return 0, util.NewInternalError(err)
	}
	s.logger.Info("notifications trimmed",
		zap.String("user_id", actor.UserID),
		zap.Int64("removed", removed),
	)
	return removed, nil
}

func stringPreview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
