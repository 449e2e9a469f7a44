package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suportebot/helpdesk/internal/auth"
	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/internal/events"
)

type notificationFixture struct {
	service       *NotificationService
	notifications *fakeNotificationRepo
	users         *fakeUserRepo
	dispatcher    *events.Dispatcher
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	logger := testLogger()
	f := &notificationFixture{
		notifications: newFakeNotificationRepo(),
		users:         newFakeUserRepo(),
		dispatcher:    events.NewDispatcher(logger),
	}
	f.service = NewNotificationService(f.notifications, f.users, logger)
	f.service.RegisterHandlers(f.dispatcher)
	return f
}

func (f *notificationFixture) addUser(t *testing.T, role domain.UserRole) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:        uuid.NewString(),
		Username:  "user-" + uuid.NewString()[:8],
		Role:      role,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func sampleTicket(ownerID string) *domain.Ticket {
	return &domain.Ticket{
		ID:           uuid.NewString(),
		ReadableCode: "TKT-00123",
		Title:        "Teclado com defeito",
		Status:       domain.TicketStatusOpen,
		OwnerID:      &ownerID,
		CreatedAt:    time.Now(),
	}
}

func TestTicketCreatedFansOutToSupport(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	tech1 := f.addUser(t, domain.RoleSupport)
	tech2 := f.addUser(t, domain.RoleSupport)
	owner := f.addUser(t, domain.RoleCollaborator)
	f.addUser(t, domain.RoleCollaborator)

	ticket := sampleTicket(owner.ID)
	f.dispatcher.Publish(ctx, events.Event{
		Type:           events.TicketCreated,
		Ticket:         ticket,
		DepartmentName: "TI",
		ActorID:        owner.ID,
	})

	for _, tech := range []*domain.User{tech1, tech2} {
		list, err := f.notifications.ListByUser(ctx, tech.ID, false)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, domain.NotificationNewTicket, list[0].Type)
		assert.Contains(t, list[0].Message, "NOVO CHAMADO")
		require.NotNil(t, list[0].BroadcastID)
	}

	// Both support copies carry the same broadcast id.
	l1, _ := f.notifications.ListByUser(ctx, tech1.ID, false)
	l2, _ := f.notifications.ListByUser(ctx, tech2.ID, false)
	assert.Equal(t, *l1[0].BroadcastID, *l2[0].BroadcastID)

	mine, err := f.notifications.ListByUser(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.NotificationMyTicketCreated, mine[0].Type)
	assert.Contains(t, mine[0].Message, "TKT-00123")
}

func TestStatusChangedSkipsActor(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, domain.RoleCollaborator)
	tech := f.addUser(t, domain.RoleSupport)
	ticket := sampleTicket(owner.ID)

	// Owner changed their own ticket, nothing to tell them.
	f.dispatcher.Publish(ctx, events.Event{
		Type:    events.TicketStatusChanged,
		Ticket:  ticket,
		ActorID: owner.ID,
	})
	mine, err := f.notifications.ListByUser(ctx, owner.ID, false)
	require.NoError(t, err)
	assert.Empty(t, mine)

	f.dispatcher.Publish(ctx, events.Event{
		Type:    events.TicketStatusChanged,
		Ticket:  ticket,
		ActorID: tech.ID,
	})
	mine, err = f.notifications.ListByUser(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.NotificationUpdate, mine[0].Type)
}

func TestMessageAddedRouting(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, domain.RoleCollaborator)
	tech := f.addUser(t, domain.RoleSupport)
	ticket := sampleTicket(owner.ID)
	techID := tech.ID
	ticket.ResponsibleID = &techID

	// Support message notifies the owner.
	f.dispatcher.Publish(ctx, events.Event{
		Type:   events.TicketMessageAdded,
		Ticket: ticket,
		Interaction: &domain.Interaction{
			Sender:     domain.SenderSupport,
			Message:    "Já estou verificando.",
			Notifiable: true,
		},
		ActorID: tech.ID,
	})
	mine, err := f.notifications.ListByUser(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.NotificationNewMessage, mine[0].Type)

	// Requester message notifies the responsible support member.
	f.dispatcher.Publish(ctx, events.Event{
		Type:   events.TicketMessageAdded,
		Ticket: ticket,
		Interaction: &domain.Interaction{
			Sender:     domain.SenderRequester,
			Message:    "Obrigado!",
			Notifiable: true,
		},
		ActorID: owner.ID,
	})
	theirs, err := f.notifications.ListByUser(ctx, tech.ID, false)
	require.NoError(t, err)
	require.Len(t, theirs, 1)

	// Non-notifiable entries and bot messages stay silent.
	f.dispatcher.Publish(ctx, events.Event{
		Type:   events.TicketMessageAdded,
		Ticket: ticket,
		Interaction: &domain.Interaction{
			Sender:     domain.SenderSupport,
			Message:    "filler",
			Notifiable: false,
		},
		ActorID: tech.ID,
	})
	f.dispatcher.Publish(ctx, events.Event{
		Type:   events.TicketMessageAdded,
		Ticket: ticket,
		Interaction: &domain.Interaction{
			Sender:     domain.SenderBot,
			Message:    "resposta automática",
			Notifiable: true,
		},
	})
	mine, err = f.notifications.ListByUser(ctx, owner.ID, false)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestMessagePreviewTruncates(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, domain.RoleCollaborator)
	ticket := sampleTicket(owner.ID)

	long := ""
	for i := 0; i < 30; i++ {
		long += "mensagem "
	}
	f.dispatcher.Publish(ctx, events.Event{
		Type:   events.TicketMessageAdded,
		Ticket: ticket,
		Interaction: &domain.Interaction{
			Sender:     domain.SenderSupport,
			Message:    long,
			Notifiable: true,
		},
	})
	mine, err := f.notifications.ListByUser(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Contains(t, mine[0].Message, "…")
}

func TestNotificationManagementIsSupportOnly(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	colab := auth.Principal{UserID: uuid.NewString(), Role: domain.RoleCollaborator}

	err := f.service.MarkRead(ctx, colab, uuid.NewString())
	assert.Equal(t, "FORBIDDEN", domainErr(t, err).Code)

	_, err = f.service.MarkAllRead(ctx, colab)
	assert.Equal(t, "FORBIDDEN", domainErr(t, err).Code)

	_, err = f.service.Trim(ctx, colab)
	assert.Equal(t, "FORBIDDEN", domainErr(t, err).Code)
}

func TestMarkReadOwnershipAndIdempotency(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	tech := f.addUser(t, domain.RoleSupport)
	other := f.addUser(t, domain.RoleSupport)
	actor := auth.Principal{UserID: tech.ID, Role: domain.RoleSupport}

	notification := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    tech.ID,
		TicketID:  uuid.NewString(),
		Message:   "teste",
		Type:      domain.NotificationNewTicket,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.notifications.Create(ctx, notification))

	otherActor := auth.Principal{UserID: other.ID, Role: domain.RoleSupport}
	err := f.service.MarkRead(ctx, otherActor, notification.ID)
	assert.Equal(t, "FORBIDDEN", domainErr(t, err).Code)

	require.NoError(t, f.service.MarkRead(ctx, actor, notification.ID))
	require.NoError(t, f.service.MarkRead(ctx, actor, notification.ID), "second read is a no-op")

	err = f.service.MarkRead(ctx, actor, uuid.NewString())
	assert.Equal(t, "NOT_FOUND", domainErr(t, err).Code)
}

func TestTrimKeepsNewest(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	tech := f.addUser(t, domain.RoleSupport)
	actor := auth.Principal{UserID: tech.ID, Role: domain.RoleSupport}

	base := time.Now()
	for i := 0; i < domain.NotificationRetention+5; i++ {
		require.NoError(t, f.notifications.Create(ctx, &domain.Notification{
			ID:        uuid.NewString(),
			UserID:    tech.ID,
			TicketID:  uuid.NewString(),
			Message:   fmt.Sprintf("notificação %d", i),
			Type:      domain.NotificationNewTicket,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	removed, err := f.service.Trim(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)

	remaining, err := f.notifications.ListByUser(ctx, tech.ID, false)
	require.NoError(t, err)
	assert.Len(t, remaining, domain.NotificationRetention)
	assert.Contains(t, remaining[0].Message, fmt.Sprintf("%d", domain.NotificationRetention+4))
}

func TestListFeed(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	tech := f.addUser(t, domain.RoleSupport)
	actor := auth.Principal{UserID: tech.ID, Role: domain.RoleSupport}

	require.NoError(t, f.notifications.Create(ctx, &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    tech.ID,
		TicketID:  uuid.NewString(),
		Message:   "não lida",
		Type:      domain.NotificationNewTicket,
		CreatedAt: time.Now(),
	}))
	read := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    tech.ID,
		TicketID:  uuid.NewString(),
		Message:   "lida",
		Type:      domain.NotificationNewTicket,
		Read:      true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.notifications.Create(ctx, read))

	feed, err := f.service.List(ctx, actor, NotificationListInput{})
	require.NoError(t, err)
	assert.Len(t, feed.Notifications, 2)
	assert.Equal(t, int64(1), feed.UnreadCount)
	assert.Equal(t, 1, feed.Page)
	assert.Equal(t, 1, feed.TotalPages)
	assert.Equal(t, int64(2), feed.Total)

	unread, err := f.service.List(ctx, actor, NotificationListInput{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Notifications, 1)

	// An overshooting page snaps back to the last one.
	last, err := f.service.List(ctx, actor, NotificationListInput{Page: 7, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, last.Page)
	assert.Equal(t, 2, last.TotalPages)
	assert.Len(t, last.Notifications, 1)
}

func TestCollaboratorFeedFollowsTicketOwnership(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	tech := f.addUser(t, domain.RoleSupport)
	colab := f.addUser(t, domain.RoleCollaborator)
	actor := auth.Principal{UserID: colab.ID, Role: domain.RoleCollaborator}

	ownTicket := uuid.NewString()
	otherTicket := uuid.NewString()
	f.notifications.setTicketOwner(ownTicket, colab.ID)
	f.notifications.setTicketOwner(otherTicket, tech.ID)

	// Broadcast addressed to a technician, hanging off the collaborator's
	// own ticket.
	require.NoError(t, f.notifications.Create(ctx, &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    tech.ID,
		TicketID:  ownTicket,
		Message:   "novo chamado aberto",
		Type:      domain.NotificationNewTicket,
		CreatedAt: time.Now(),
	}))
	// Addressed directly to the collaborator, but on someone else's ticket.
	require.NoError(t, f.notifications.Create(ctx, &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    colab.ID,
		TicketID:  otherTicket,
		Message:   "mensagem avulsa",
		Type:      domain.NotificationNewMessage,
		CreatedAt: time.Now(),
	}))

	feed, err := f.service.List(ctx, actor, NotificationListInput{})
	require.NoError(t, err)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, "novo chamado aberto", feed.Notifications[0].Message)
	assert.Equal(t, int64(1), feed.UnreadCount)

	// The technician's own feed is still addressee based.
	techFeed, err := f.service.List(ctx, auth.Principal{UserID: tech.ID, Role: domain.RoleSupport}, NotificationListInput{})
	require.NoError(t, err)
	require.Len(t, techFeed.Notifications, 1)
	assert.Equal(t, "novo chamado aberto", techFeed.Notifications[0].Message)
}
