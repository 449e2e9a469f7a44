package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        TicketUrgency
	}{
		{"system down is urgent", "Sistema fora do ar", "Ninguém consegue acessar", UrgencyUrgent},
		{"question is low", "Dúvida sobre processo", "Como solicito férias?", UrgencyLow},
		{"everything else is medium", "Atualizar cadastro", "Preciso trocar meu ramal", UrgencyMedium},
		{"urgent wins over low", "Dúvida urgente", "Sistema parado e tenho uma consulta", UrgencyUrgent},
		{"keyword in description counts", "Impressora", "Equipamento quebrado desde ontem", UrgencyUrgent},
		{"accent-free variants match", "Emergencia na producao", "Nao funciona nada", UrgencyUrgent},
		{"case insensitive", "SISTEMA PARADO", "TUDO FORA DO AR", UrgencyUrgent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyUrgency(tt.title, tt.description))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(TicketStatusOpen))
	assert.True(t, ValidStatus(TicketStatusResolved))
	assert.False(t, ValidStatus("cancelado"))
	assert.False(t, ValidStatus(""))
}

func TestTicketLabels(t *testing.T) {
	ticket := &Ticket{Status: TicketStatusOpen, Urgency: UrgencyUrgent}
	assert.Equal(t, "Em Andamento", ticket.StatusLabel())
	assert.Equal(t, "Urgente", ticket.UrgencyLabel())
	assert.False(t, ticket.IsResolved())

	ticket.Status = TicketStatusResolved
	ticket.Urgency = UrgencyLow
	assert.Equal(t, "Resolvido", ticket.StatusLabel())
	assert.Equal(t, "Baixa", ticket.UrgencyLabel())
	assert.True(t, ticket.IsResolved())
}

func TestRoleFromAccessCode(t *testing.T) {
	assert.Equal(t, RoleSupport, RoleFromAccessCode(100000))
	assert.Equal(t, RoleSupport, RoleFromAccessCode(150000))
	assert.Equal(t, RoleSupport, RoleFromAccessCode(199999))
	assert.Equal(t, RoleCollaborator, RoleFromAccessCode(200000))
	assert.Equal(t, RoleCollaborator, RoleFromAccessCode(999999))
}

func TestCanManageNotifications(t *testing.T) {
	assert.True(t, CanManageNotifications(RoleSupport))
	assert.False(t, CanManageNotifications(RoleCollaborator))
}

func TestResolvedAtPointerIsIndependent(t *testing.T) {
	now := time.Now()
	ticket := &Ticket{Status: TicketStatusResolved, ResolvedAt: &now}
	cp := *ticket
	later := now.Add(time.Hour)
	cp.ResolvedAt = &later
	assert.Equal(t, now, *ticket.ResolvedAt)
}
