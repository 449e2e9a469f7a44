package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/internal/repository"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.UserRole) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeDepartmentRepo struct {
	mu    sync.Mutex
	depts map[string]*domain.Department
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{depts: make(map[string]*domain.Department)}
}

func (r *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.depts {
		if d.Name == dept.Name {
			return nil
		}
	}
	cp := *dept
	r.depts[dept.ID] = &cp
	return nil
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.depts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.depts {
		if d.Name == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) List(_ context.Context) ([]*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Department
	for _, d := range r.depts {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeDepartmentRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.depts)), nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickets[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) GetByReadableCode(_ context.Context, code string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ReadableCode == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ExistsByReadableCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ReadableCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func ticketMatchesFilter(t *domain.Ticket, filter repository.TicketFilter) bool {
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.Urgency != "" && t.Urgency != filter.Urgency {
		return false
	}
	if filter.DepartmentID != "" && t.DepartmentID != filter.DepartmentID {
		return false
	}
	if filter.OwnerID != "" && (t.OwnerID == nil || *t.OwnerID != filter.OwnerID) {
		return false
	}
	if !filter.CreatedAfter.IsZero() && t.CreatedAt.Before(filter.CreatedAfter) {
		return false
	}
	return true
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Ticket
	for _, t := range r.tickets {
		if !ticketMatchesFilter(t, filter) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeTicketRepo) CountWithFilter(_ context.Context, filter repository.TicketFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tickets {
		if ticketMatchesFilter(t, filter) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTicketRepo) Stats(_ context.Context) (*repository.TicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.TicketStats{ByDepartment: make(map[string]int64)}
	for _, t := range r.tickets {
		stats.Total++
		if t.Status == domain.TicketStatusOpen {
			stats.Open++
		} else {
			stats.Resolved++
		}
		if t.Urgency == domain.UrgencyUrgent && t.Status == domain.TicketStatusOpen {
			stats.Urgent++
		}
		if !t.CreatedAt.Before(startOfDay(time.Now())) {
			stats.Today++
		}
		stats.ByDepartment[t.DepartmentID]++
	}
	return stats, nil
}

type fakeInteractionRepo struct {
	mu           sync.Mutex
	interactions []*domain.Interaction
}

func newFakeInteractionRepo() *fakeInteractionRepo {
	return &fakeInteractionRepo{}
}

func (r *fakeInteractionRepo) Create(_ context.Context, interaction *domain.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *interaction
	r.interactions = append(r.interactions, &cp)
	return nil
}

func (r *fakeInteractionRepo) GetByID(_ context.Context, id string) (*domain.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.interactions {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeInteractionRepo) ListByTicket(_ context.Context, ticketID string) ([]*domain.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Interaction
	for _, it := range r.interactions {
		if it.TicketID == ticketID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInteractionRepo) ListSinceTime(_ context.Context, ticketID string, after time.Time) ([]*domain.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Interaction
	for _, it := range r.interactions {
		if it.TicketID == ticketID && it.CreatedAt.After(after) {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInteractionRepo) ExistsByTicketAndAction(_ context.Context, ticketID string, action domain.BotAction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.interactions {
		if it.TicketID == ticketID && it.BotAction != nil && *it.BotAction == action {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInteractionRepo) LastByTicket(_ context.Context, ticketID string) (*domain.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.interactions) - 1; i >= 0; i-- {
		if r.interactions[i].TicketID == ticketID {
			cp := *r.interactions[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeInteractionRepo) byAction(ticketID string, action domain.BotAction) []*domain.Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Interaction
	for _, it := range r.interactions {
		if it.TicketID == ticketID && it.BotAction != nil && *it.BotAction == action {
			out = append(out, it)
		}
	}
	return out
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*domain.Notification
	ticketOwners  map[string]string
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{ticketOwners: make(map[string]string)}
}

func (r *fakeNotificationRepo) setTicketOwner(ticketID, ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticketOwners[ticketID] = ownerID
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *notification
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeNotificationRepo) ListByTicketOwner(_ context.Context, ownerID string, unreadOnly bool) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.notifications {
		if r.ticketOwners[n.TicketID] != ownerID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, notification := range r.notifications {
		if notification.UserID == userID && !notification.Read {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) CountUnreadByTicketOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, notification := range r.notifications {
		if r.ticketOwners[notification.TicketID] == ownerID && !notification.Read {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (r *fakeNotificationRepo) TrimToNewest(_ context.Context, userID string, keep int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []*domain.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	if len(mine) <= keep {
		return 0, nil
	}
	drop := make(map[string]struct{})
	for _, n := range mine[keep:] {
		drop[n.ID] = struct{}{}
	}
	var kept []*domain.Notification
	for _, n := range r.notifications {
		if _, gone := drop[n.ID]; !gone {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return int64(len(drop)), nil
}

type fakeConfirmationRepo struct {
	mu            sync.Mutex
	confirmations map[string]*domain.ResolutionConfirmation
}

func newFakeConfirmationRepo() *fakeConfirmationRepo {
	return &fakeConfirmationRepo{confirmations: make(map[string]*domain.ResolutionConfirmation)}
}

func (r *fakeConfirmationRepo) Create(_ context.Context, confirmation *domain.ResolutionConfirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *confirmation
	r.confirmations[confirmation.TicketID] = &cp
	return nil
}

func (r *fakeConfirmationRepo) GetByTicket(_ context.Context, ticketID string) (*domain.ResolutionConfirmation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.confirmations[ticketID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeConfirmationRepo) ExistsByTicket(_ context.Context, ticketID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.confirmations[ticketID]
	return ok, nil
}

// fakeLimiter counts calls and denies once the configured limit is hit,
// or always allows when limit is zero.
type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
}

func newFakeLimiter(limit int) *fakeLimiter {
	return &fakeLimiter{counts: make(map[string]int), limit: limit}
}

func (l *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	max := limit
	if l.limit > 0 {
		max = l.limit
	}
	return l.counts[key] <= max, nil
}

func (l *fakeLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, key)
	return nil
}
