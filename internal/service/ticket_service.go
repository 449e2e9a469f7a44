package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
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

const readableCodeAttempts = 50

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	tickets       repository.TicketRepository
	interactions  repository.InteractionRepository
	departments   repository.DepartmentRepository
	confirmations repository.ConfirmationRepository
	dispatcher    *events.Dispatcher
	logger        *zap.Logger
}

// TicketDependencies bundles collaborators for TicketService.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	InteractionRepo  repository.InteractionRepository
	DepartmentRepo   repository.DepartmentRepository
	ConfirmationRepo repository.ConfirmationRepository
	Dispatcher       *events.Dispatcher
	Logger           *zap.Logger
}

func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:       deps.TicketRepo,
		interactions:  deps.InteractionRepo,
		departments:   deps.DepartmentRepo,
		confirmations: deps.ConfirmationRepo,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
}

// TicketCreateInput describes the creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	DepartmentID string
	OnSite       bool
}

// TicketCreateResult pairs the stored ticket with the full scripted
// opening run. Only the first step is persisted; the client renders the
// remaining steps itself.
type TicketCreateResult struct {
	Ticket         *domain.Ticket
	DepartmentName string
	Opening        []bot.Step
}

// CreateTicket validates, classifies and stores a new ticket.
func (s *TicketService) CreateTicket(ctx context.Context, actor auth.Principal, input TicketCreateInput) (*TicketCreateResult, error) {
	title := security.Sanitize(input.Title, 200)
	description := security.Sanitize(input.Description, 1000)

	if len([]rune(title)) < 5 {
		return nil, util.NewValidationError("Título muito curto (mínimo 5 caracteres)", nil)
	}
	if len([]rune(description)) < 10 {
		return nil, util.NewValidationError("Descrição muito curta (mínimo 10 caracteres)", nil)
	}
	if err := security.ValidateUUID(input.DepartmentID); err != nil {
		return nil, util.NewValidationError("Departamento selecionado não encontrado!", nil)
	}

	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewValidationError("Departamento selecionado não encontrado!", nil)
		}
		return nil, util.NewInternalError(err)
	}

	code, err := s.generateReadableCode(ctx)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	now := time.Now()
	ownerID := actor.UserID
	ticket := &domain.Ticket{
		ID:            uuid.NewString(),
		ReadableCode:  code,
		Title:         title,
		Description:   description,
		RequesterName: actor.Username,
		DepartmentID:  dept.ID,
		OnSite:        input.OnSite,
		Urgency:       domain.ClassifyUrgency(title, description),
		Status:        domain.TicketStatusOpen,
		OwnerID:       &ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, util.NewInternalError(err)
	}

	opening := bot.OpeningSequence(ticket, dept.Name)
	first := opening[0]
	action := first.Action
	if err := s.interactions.Create(ctx, &domain.Interaction{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		Sender:     domain.SenderBot,
		Message:    first.Message,
		BotAction:  &action,
		Notifiable: false,
		CreatedAt:  now,
	}); err != nil {
		// The ticket stands even when the greeting fails.
		s.logger.Error("opening interaction failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	s.dispatcher.Publish(ctx, events.Event{
		Type:           events.TicketCreated,
		Ticket:         ticket,
		DepartmentName: dept.Name,
		ActorID:        actor.UserID,
	})

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("readable_code", ticket.ReadableCode),
		zap.String("urgency", string(ticket.Urgency)),
	)
	return &TicketCreateResult{Ticket: ticket, DepartmentName: dept.Name, Opening: opening}, nil
}

// GetTicket returns one ticket, enforcing ownership for collaborators.
func (s *TicketService) GetTicket(ctx context.Context, actor auth.Principal, ticketID string) (*domain.Ticket, error) {
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
	if err := s.requireAccess(actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// TicketListInput narrows listings. Period accepts hoje, semana, mes or
// trimestre. Page is 1-based; out-of-range pages snap to the last one.
type TicketListInput struct {
	Status       domain.TicketStatus
	Urgency      domain.TicketUrgency
	DepartmentID string
	Period       string
	Page         int
	Limit        int
}

// TicketPage is one page of a listing plus its pagination counters.
type TicketPage struct {
	Tickets    []*domain.Ticket
	Page       int
	TotalPages int
	Total      int64
}

// ListTickets returns tickets visible to the actor. Collaborators only
// ever see their own.
func (s *TicketService) ListTickets(ctx context.Context, actor auth.Principal, input TicketListInput) (*TicketPage, error) {
	if input.Status != "" && !domain.ValidStatus(input.Status) {
		return nil, util.NewValidationError("Status inválido.", nil)
	}

	filter := repository.TicketFilter{
		Status:       input.Status,
		Urgency:      input.Urgency,
		DepartmentID: input.DepartmentID,
	}
	if !actor.IsSupport() {
		filter.OwnerID = actor.UserID
	}

	now := time.Now()
	switch input.Period {
	case "":
	case "hoje":
		filter.CreatedAfter = startOfDay(now)
	case "semana":
		filter.CreatedAfter = now.AddDate(0, 0, -7)
	case "mes":
		filter.CreatedAfter = now.AddDate(0, 0, -30)
	case "trimestre":
		filter.CreatedAfter = now.AddDate(0, 0, -90)
	default:
		return nil, util.NewValidationError("Período inválido.", nil)
	}

	total, err := s.tickets.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	limit := clampLimit(input.Limit)
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

	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &TicketPage{Tickets: tickets, Page: page, TotalPages: totalPages, Total: total}, nil
}

// ChangeStatus moves the ticket between states. Support can change any
// ticket, owners only their own. The resolution timestamp is non-null
// exactly while the ticket is resolved.
func (s *TicketService) ChangeStatus(ctx context.Context, actor auth.Principal, ticketID string, status domain.TicketStatus, note string) (*domain.Ticket, error) {
	if !domain.ValidStatus(status) {
		return nil, util.NewValidationError("Status inválido.", nil)
	}
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	previous := ticket.Status
	if previous == status {
		return ticket, nil
	}

	now := time.Now()
	ticket.Status = status
	ticket.UpdatedAt = now
	if status == domain.TicketStatusResolved {
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
	} else {
		ticket.ResolvedAt = nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.NewInternalError(err)
	}

	statusMessage := fmt.Sprintf("📊 **Status alterado:** %s → %s", statusLabel(previous), ticket.StatusLabel())
	if note = security.Sanitize(note, 200); note != "" {
		statusMessage += "\n💬 **Observação:** " + note
	}
	sender := domain.SenderRequester
	var responsible *string
	if actor.IsSupport() {
		sender = domain.SenderSupport
		id := actor.UserID
		responsible = &id
	}
	action := domain.BotActionStatusUpdate
	s.appendInteraction(ctx, &domain.Interaction{
		ID:            uuid.NewString(),
		TicketID:      ticket.ID,
		Sender:        sender,
		Message:       statusMessage,
		BotAction:     &action,
		ResponsibleID: responsible,
		Notifiable:    true,
		CreatedAt:     now,
	})

	if status == domain.TicketStatusResolved && actor.IsSupport() {
		s.appendClosingMessages(ctx, ticket.ID, bot.SupportFinalizationMessage(), domain.BotActionFinalization)
	}

	s.dispatcher.Publish(ctx, events.Event{
		Type:           events.TicketStatusChanged,
		Ticket:         ticket,
		PreviousStatus: previous,
		ActorID:        actor.UserID,
	})

	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	return ticket, nil
}

// MarkViewed flags the ticket as seen by support.
func (s *TicketService) MarkViewed(ctx context.Context, actor auth.Principal, ticketID string) error {
	ticket, err := s.getForSupport(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	if ticket.ViewedBySupport {
		return nil
	}
	ticket.ViewedBySupport = true
	ticket.UpdatedAt = time.Now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return util.NewInternalError(err)
	}
	return nil
}

// AssumeControl hands the chat to a support member. The bot stops
// answering and any previous responsible is replaced without complaint.
func (s *TicketService) AssumeControl(ctx context.Context, actor auth.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getForSupport(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	actorID := actor.UserID
	ticket.ResponsibleID = &actorID
	ticket.SupportChatControl = true
	ticket.ViewedBySupport = true
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.NewInternalError(err)
	}

	s.appendInteraction(ctx, &domain.Interaction{
		ID:       uuid.NewString(),
		TicketID: ticket.ID,
		Sender:   domain.SenderSupport,
		Message: fmt.Sprintf("👨‍💼 **%s assumiu o controle do chat**\nA partir de agora, você está em contato direto com o suporte técnico.",
			actor.Username),
		ResponsibleID: &actorID,
		Notifiable:    true,
		CreatedAt:     now,
	})

	s.logger.Info("chat control assumed",
		zap.String("ticket_id", ticket.ID),
		zap.String("support_id", actor.UserID),
	)
	return ticket, nil
}

// Intermediate lets support join the conversation without silencing the
// bot. Unlike AssumeControl, a ticket already handled by someone else is
// a conflict.
func (s *TicketService) Intermediate(ctx context.Context, actor auth.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getForSupport(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ResponsibleID != nil && *ticket.ResponsibleID != actor.UserID {
		return nil, util.NewConflict("Outro membro do suporte já é responsável por este chamado.", nil)
	}

	now := time.Now()
	actorID := actor.UserID
	ticket.ResponsibleID = &actorID
	ticket.ViewedBySupport = true
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.NewInternalError(err)
	}

	s.appendInteraction(ctx, &domain.Interaction{
		ID:       uuid.NewString(),
		TicketID: ticket.ID,
		Sender:   domain.SenderSupport,
		Message: fmt.Sprintf("🛠️ **%s está agora intermediando este chat**\nEstou aqui para ajudar no atendimento e garantir que tudo seja resolvido da melhor forma possível.",
			actor.Username),
		ResponsibleID: &actorID,
		Notifiable:    true,
		CreatedAt:     now,
	})
	action := domain.BotActionIntermediation
	s.appendInteraction(ctx, &domain.Interaction{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		Sender:     domain.SenderBot,
		Message:    "🤖 **Modo de intermediação ativado**\nA partir de agora, o suporte técnico está acompanhando nossa conversa e pode intervir quando necessário para agilizar a solução.",
		BotAction:  &action,
		Notifiable: false,
		CreatedAt:  now,
	})

	return ticket, nil
}

// ConfirmBySupport closes a ticket on behalf of the support team.
func (s *TicketService) ConfirmBySupport(ctx context.Context, actor auth.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getForSupport(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s.resolve(ticket, now)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.NewInternalError(err)
	}

	s.appendClosingMessages(ctx, ticket.ID, bot.SupportFinalizationMessage(), domain.BotActionFinalization)

	s.dispatcher.Publish(ctx, events.Event{
		Type:           events.TicketStatusChanged,
		Ticket:         ticket,
		PreviousStatus: domain.TicketStatusOpen,
		ActorID:        actor.UserID,
	})
	s.logger.Info("ticket resolved by support",
		zap.String("ticket_id", ticket.ID),
		zap.String("support_id", actor.UserID),
	)
	return ticket, nil
}

// ConfirmResolutionInput is the requester's sign-off payload.
type ConfirmResolutionInput struct {
	Satisfaction int
	Comment      string
}

// ConfirmByRequester lets the ticket owner close their own ticket and
// leave a satisfaction record. At most one confirmation exists per
// ticket.
func (s *TicketService) ConfirmByRequester(ctx context.Context, actor auth.Principal, ticketID string, input ConfirmResolutionInput) (*domain.Ticket, error) {
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
	if ticket.OwnerID == nil || *ticket.OwnerID != actor.UserID {
		return nil, util.NewForbidden("Você só pode confirmar resolução dos seus próprios chamados.")
	}

	exists, err := s.confirmations.ExistsByTicket(ctx, ticketID)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	if exists {
		return nil, util.NewConflict("Este chamado já possui confirmação de resolução.", nil)
	}
	if input.Satisfaction < 1 || input.Satisfaction > 5 {
		return nil, util.NewValidationError("Nível de satisfação deve estar entre 1 e 5.", nil)
	}

	now := time.Now()
	s.resolve(ticket, now)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.NewInternalError(err)
	}

	if err := s.confirmations.Create(ctx, &domain.ResolutionConfirmation{
		ID:           uuid.NewString(),
		TicketID:     ticket.ID,
		ConfirmedBy:  actor.UserID,
		Satisfaction: input.Satisfaction,
		Comment:      security.Sanitize(input.Comment, 500),
		CreatedAt:    now,
	}); err != nil {
		return nil, util.NewInternalError(err)
	}

	s.appendInteraction(ctx, &domain.Interaction{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		Sender:     domain.SenderRequester,
		Message:    "✅ Confirmo que meu problema foi resolvido!",
		Notifiable: true,
		CreatedAt:  now,
	})
	s.appendClosingMessages(ctx, ticket.ID, bot.RequesterFinalizationMessage(), domain.BotActionUserFinalized)

	s.dispatcher.Publish(ctx, events.Event{
		Type:           events.TicketStatusChanged,
		Ticket:         ticket,
		PreviousStatus: domain.TicketStatusOpen,
		ActorID:        actor.UserID,
	})
	s.logger.Info("ticket resolved by requester", zap.String("ticket_id", ticket.ID))
	return ticket, nil
}

// Stats returns the dashboard counters. Support only.
func (s *TicketService) Stats(ctx context.Context, actor auth.Principal) (*repository.TicketStats, error) {
	if !actor.IsSupport() {
		return nil, util.NewForbidden("Acesso restrito à equipe de suporte.")
	}
	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return stats, nil
}

// resolve moves the ticket to its terminal state, stamping ResolvedAt
// only on the first transition.
func (s *TicketService) resolve(ticket *domain.Ticket, now time.Time) {
	ticket.Status = domain.TicketStatusResolved
	ticket.UpdatedAt = now
	if ticket.ResolvedAt == nil {
		ticket.ResolvedAt = &now
	}
}

func (s *TicketService) appendClosingMessages(ctx context.Context, ticketID, finalMessage string, action domain.BotAction) {
	now := time.Now()
	s.appendInteraction(ctx, &domain.Interaction{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		Sender:     domain.SenderBot,
		Message:    finalMessage,
		BotAction:  &action,
		Notifiable: true,
		CreatedAt:  now,
	})
	thanks := domain.BotActionThankYou
	s.appendInteraction(ctx, &domain.Interaction{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		Sender:     domain.SenderBot,
		Message:    bot.ClosingThankYouMessage(),
		BotAction:  &thanks,
		Notifiable: false,
		CreatedAt:  now.Add(time.Millisecond),
	})
}

// appendInteraction stores a side-effect message; failures are logged
// and swallowed so they never undo the main state change.
func (s *TicketService) appendInteraction(ctx context.Context, interaction *domain.Interaction) {
	if err := s.interactions.Create(ctx, interaction); err != nil {
		s.logger.Error("interaction append failed",
			zap.String("ticket_id", interaction.TicketID), zap.Error(err))
	}
}

func (s *TicketService) requireAccess(actor auth.Principal, ticket *domain.Ticket) error {
	if actor.IsSupport() {
		return nil
	}
	if ticket.OwnerID != nil && *ticket.OwnerID == actor.UserID {
		return nil
	}
	return util.NewForbidden("Acesso não autorizado a este chamado.")
}

func (s *TicketService) getForSupport(ctx context.Context, actor auth.Principal, ticketID string) (*domain.Ticket, error) {
	if !actor.IsSupport() {
		return nil, util.NewForbidden("Apenas usuários de suporte podem executar esta ação.")
	}
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
	return ticket, nil
}

// generateReadableCode produces a short human-friendly code, retrying on
// the rare collision.
func (s *TicketService) generateReadableCode(ctx context.Context) (string, error) {
	for i := 0; i < readableCodeAttempts; i++ {
		code := fmt.Sprintf("TKT-%05d", rand.Intn(100000))
		exists, err := s.tickets.ExistsByReadableCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique ticket code")
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	default:
		return limit
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func statusLabel(status domain.TicketStatus) string {
	if status == domain.TicketStatusResolved {
		return "Resolvido"
	}
	return "Em Andamento"
}
