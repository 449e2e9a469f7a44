package domain

import "time"

// NotificationType enumerates notification categories.
type NotificationType string

const (
	NotificationNewTicket       NotificationType = "novo_chamado"
	NotificationMyTicketCreated NotificationType = "meu_chamado"
	NotificationUpdate          NotificationType = "atualizacao"
	NotificationNewMessage      NotificationType = "mensagem"
	NotificationBroadcast       NotificationType = "novo_chamado_broadcast"
)

// NotificationRetention is how many notifications per user survive a trim.
const NotificationRetention = 20

// Notification targets exactly one user and references exactly one ticket.
type Notification struct {
	ID          string
	UserID      string
	TicketID    string
	Message     string
	Type        NotificationType
	Read        bool
	BroadcastID *string
	CreatedAt   time.Time
}
