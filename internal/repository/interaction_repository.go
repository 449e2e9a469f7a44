package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suportebot/helpdesk/internal/domain"
)

type InteractionRepository interface {
	Create(ctx context.Context, interaction *domain.Interaction) error
	GetByID(ctx context.Context, id string) (*domain.Interaction, error)
	ListByTicket(ctx context.Context, ticketID string) ([]*domain.Interaction, error)
	ListSinceTime(ctx context.Context, ticketID string, after time.Time) ([]*domain.Interaction, error)
	ExistsByTicketAndAction(ctx context.Context, ticketID string, action domain.BotAction) (bool, error)
	LastByTicket(ctx context.Context, ticketID string) (*domain.Interaction, error)
}

type interactionRepository struct {
	pool *pgxpool.Pool
}

func NewInteractionRepository(pool *pgxpool.Pool) InteractionRepository {
	return &interactionRepository{pool: pool}
}

const interactionColumns = `id, ticket_id, sender, message, bot_action, responsible_id, notifiable, created_at`

func (r *interactionRepository) Create(ctx context.Context, interaction *domain.Interaction) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO interactions (`+interactionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		interaction.ID, interaction.TicketID, interaction.Sender, interaction.Message,
		interaction.BotAction, interaction.ResponsibleID, interaction.Notifiable,
		interaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (r *interactionRepository) GetByID(ctx context.Context, id string) (*domain.Interaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE id = $1`, id)
	return scanInteraction(row)
}

func (r *interactionRepository) ListByTicket(ctx context.Context, ticketID string) ([]*domain.Interaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+interactionColumns+` FROM interactions
         WHERE ticket_id = $1 ORDER BY created_at, id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return collectInteractions(rows)
}

func (r *interactionRepository) ListSinceTime(ctx context.Context, ticketID string, after time.Time) ([]*domain.Interaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+interactionColumns+` FROM interactions
         WHERE ticket_id = $1 AND created_at > $2
         ORDER BY created_at, id`, ticketID, after)
	if err != nil {
		return nil, fmt.Errorf("list interactions since time: %w", err)
	}
	return collectInteractions(rows)
}

func (r *interactionRepository) ExistsByTicketAndAction(ctx context.Context, ticketID string, action domain.BotAction) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM interactions WHERE ticket_id = $1 AND bot_action = $2)`,
		ticketID, action,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check interaction action: %w", err)
	}
	return exists, nil
}

func (r *interactionRepository) LastByTicket(ctx context.Context, ticketID string) (*domain.Interaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+interactionColumns+` FROM interactions
         WHERE ticket_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, ticketID)
	return scanInteraction(row)
}

func collectInteractions(rows pgx.Rows) ([]*domain.Interaction, error) {
	defer rows.Close()
	var interactions []*domain.Interaction
	for rows.Next() {
		it, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, it)
	}
	return interactions, rows.Err()
}

func scanInteraction(row pgx.Row) (*domain.Interaction, error) {
	var it domain.Interaction
	err := row.Scan(
		&it.ID, &it.TicketID, &it.Sender, &it.Message, &it.BotAction,
		&it.ResponsibleID, &it.Notifiable, &it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan interaction: %w", err)
	}
	return &it, nil
}
