package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suportebot/helpdesk/internal/domain"
)

// TicketFilter narrows ticket listings. Zero values mean "no constraint".
type TicketFilter struct {
	Status       domain.TicketStatus
	Urgency      domain.TicketUrgency
	DepartmentID string
	OwnerID      string
	CreatedAfter time.Time
	Limit        int
	Offset       int
}

// TicketStats aggregates the dashboard counters.
type TicketStats struct {
	Total        int64
	Open         int64
	Resolved     int64
	Urgent       int64
	Today        int64
	ByDepartment map[string]int64
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByReadableCode(ctx context.Context, code string) (*domain.Ticket, error)
	ExistsByReadableCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error)
	CountWithFilter(ctx context.Context, filter TicketFilter) (int64, error)
	Stats(ctx context.Context) (*TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, readable_code, title, description, requester_name, department_id,
    on_site, urgency, status, owner_id, responsible_id, viewed_by_support,
    support_chat_control, created_at, updated_at, resolved_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO tickets (`+ticketColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		ticket.ID, ticket.ReadableCode, ticket.Title, ticket.Description,
		ticket.RequesterName, ticket.DepartmentID, ticket.OnSite, ticket.Urgency,
		ticket.Status, ticket.OwnerID, ticket.ResponsibleID, ticket.ViewedBySupport,
		ticket.SupportChatControl, ticket.CreatedAt, ticket.UpdatedAt, ticket.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

func (r *ticketRepository) GetByReadableCode(ctx context.Context, code string) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE readable_code = $1`, code)
	return scanTicket(row)
}

func (r *ticketRepository) ExistsByReadableCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE readable_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check readable code: %w", err)
	}
	return exists, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE tickets SET
            title = $2, description = $3, requester_name = $4, department_id = $5,
            on_site = $6, urgency = $7, status = $8, owner_id = $9,
            responsible_id = $10, viewed_by_support = $11, support_chat_control = $12,
            updated_at = $13, resolved_at = $14
        WHERE id = $1`,
		ticket.ID, ticket.Title, ticket.Description, ticket.RequesterName,
		ticket.DepartmentID, ticket.OnSite, ticket.Urgency, ticket.Status,
		ticket.OwnerID, ticket.ResponsibleID, ticket.ViewedBySupport,
		ticket.SupportChatControl, ticket.UpdatedAt, ticket.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func buildTicketClauses(filter TicketFilter) ([]string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Urgency != "" {
		add("urgency = $%d", filter.Urgency)
	}
	if filter.DepartmentID != "" {
		add("department_id = $%d", filter.DepartmentID)
	}
	if filter.OwnerID != "" {
		add("owner_id = $%d", filter.OwnerID)
	}
	if !filter.CreatedAfter.IsZero() {
		add("created_at >= $%d", filter.CreatedAfter)
	}
	return clauses, args
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error) {
	clauses, args := buildTicketClauses(filter)

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) CountWithFilter(ctx context.Context, filter TicketFilter) (int64, error) {
	clauses, args := buildTicketClauses(filter)

	query := `SELECT COUNT(*) FROM tickets`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}

func (r *ticketRepository) Stats(ctx context.Context) (*TicketStats, error) {
	stats := &TicketStats{ByDepartment: make(map[string]int64)}

	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'em_andamento'),
               COUNT(*) FILTER (WHERE status = 'resolvido'),
               COUNT(*) FILTER (WHERE urgency = 'urgente' AND status = 'em_andamento'),
               COUNT(*) FILTER (WHERE created_at >= date_trunc('day', now()))
        FROM tickets`,
	).Scan(&stats.Total, &stats.Open, &stats.Resolved, &stats.Urgent, &stats.Today)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
        SELECT d.name, COUNT(t.id)
        FROM departments d
        LEFT JOIN tickets t ON t.department_id = d.id
        GROUP BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan department stat: %w", err)
		}
		stats.ByDepartment[name] = count
	}
	return stats, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID, &t.ReadableCode, &t.Title, &t.Description, &t.RequesterName,
		&t.DepartmentID, &t.OnSite, &t.Urgency, &t.Status, &t.OwnerID,
		&t.ResponsibleID, &t.ViewedBySupport, &t.SupportChatControl,
		&t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	return &t, nil
}
