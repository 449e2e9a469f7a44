package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suportebot/helpdesk/internal/domain"
)

type ConfirmationRepository interface {
	Create(ctx context.Context, confirmation *domain.ResolutionConfirmation) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.ResolutionConfirmation, error)
	ExistsByTicket(ctx context.Context, ticketID string) (bool, error)
}

type confirmationRepository struct {
	pool *pgxpool.Pool
}

func NewConfirmationRepository(pool *pgxpool.Pool) ConfirmationRepository {
	return &confirmationRepository{pool: pool}
}

func (r *confirmationRepository) Create(ctx context.Context, confirmation *domain.ResolutionConfirmation) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO resolution_confirmations (id, ticket_id, confirmed_by, satisfaction, comment, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		confirmation.ID, confirmation.TicketID, confirmation.ConfirmedBy,
		confirmation.Satisfaction, confirmation.Comment, confirmation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert confirmation: %w", err)
	}
	return nil
}

func (r *confirmationRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.ResolutionConfirmation, error) {
	var c domain.ResolutionConfirmation
	err := r.pool.QueryRow(ctx, `
        SELECT id, ticket_id, confirmed_by, satisfaction, comment, created_at
        FROM resolution_confirmations WHERE ticket_id = $1`, ticketID,
	).Scan(&c.ID, &c.TicketID, &c.ConfirmedBy, &c.Satisfaction, &c.Comment, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan confirmation: %w", err)
	}
	return &c, nil
}

func (r *confirmationRepository) ExistsByTicket(ctx context.Context, ticketID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM resolution_confirmations WHERE ticket_id = $1)`,
		ticketID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check confirmation: %w", err)
	}
	return exists, nil
}
