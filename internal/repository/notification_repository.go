package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suportebot/helpdesk/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error)
	ListByTicketOwner(ctx context.Context, ownerID string, unreadOnly bool) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	CountUnreadByTicketOwner(ctx context.Context, ownerID string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	TrimToNewest(ctx context.Context, userID string, keep int) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, user_id, ticket_id, message, type, read, broadcast_id, created_at`

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO notifications (`+notificationColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		notification.ID, notification.UserID, notification.TicketID,
		notification.Message, notification.Type, notification.Read,
		notification.BroadcastID, notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	return scanNotification(row)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// ListByTicketOwner returns the notifications hanging off tickets the
// user owns, regardless of who they are addressed to.
func (r *notificationRepository) ListByTicketOwner(ctx context.Context, ownerID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT n.id, n.user_id, n.ticket_id, n.message, n.type, n.read, n.broadcast_id, n.created_at
        FROM notifications n
        JOIN tickets t ON t.id = n.ticket_id
        WHERE t.owner_id = $1`
	if unreadOnly {
		query += ` AND n.read = FALSE`
	}
	query += ` ORDER BY n.created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notifications by owner: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// CountUnreadByTicketOwner counts unread notifications through the same
// ticket-ownership lens ListByTicketOwner reads through.
func (r *notificationRepository) CountUnreadByTicketOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM notifications n
        JOIN tickets t ON t.id = n.ticket_id
        WHERE t.owner_id = $1 AND n.read = FALSE`, ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread by owner: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TrimToNewest deletes everything beyond the user's `keep` newest
// notifications and reports how many rows went away.
func (r *notificationRepository) TrimToNewest(ctx context.Context, userID string, keep int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
        DELETE FROM notifications
        WHERE user_id = $1 AND id NOT IN (
            SELECT id FROM notifications
            WHERE user_id = $1
            ORDER BY created_at DESC
            LIMIT $2
        )`, userID, keep)
	if err != nil {
		return 0, fmt.Errorf("trim notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.TicketID, &n.Message, &n.Type, &n.Read,
		&n.BroadcastID, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return &n, nil
}
