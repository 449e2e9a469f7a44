package domain

import "time"

// InteractionSender indicates who authored a chat entry.
type InteractionSender string

const (
	SenderRequester InteractionSender = "usuario"
	SenderBot       InteractionSender = "bot"
	SenderSupport   InteractionSender = "suporte"
)

// BotAction tags bot messages so escalation checks, the UI, and the
// notification filter can recognize them without sniffing message text.
type BotAction string

const (
	BotActionGreeting       BotAction = "saudacao"
	BotActionConfirmation   BotAction = "confirmacao"
	BotActionClassification BotAction = "classificacao"
	BotActionEstimatedTime  BotAction = "tempo_estimado"
	BotActionTimeCheck      BotAction = "verificacao_tempo"
	BotActionUrgentCheck    BotAction = "verificacao_urgente"
	BotActionFinalization   BotAction = "finalizacao"
	BotActionUserFinalized  BotAction = "finalizacao_usuario"
	BotActionThankYou       BotAction = "agradecimento"
	BotActionSmartReply     BotAction = "resposta_inteligente"
	BotActionDefaultReply   BotAction = "resposta_padrao"
	BotActionAlreadyClosed  BotAction = "chamado_finalizado"
	BotActionStatusUpdate   BotAction = "atualizacao_status"
	BotActionIntermediation BotAction = "intermediacao_ativa"
)

// Interaction is one append-only chat-log entry attached to a ticket.
type Interaction struct {
	ID            string
	TicketID      string
	Sender        InteractionSender
	Message       string
	BotAction     *BotAction
	ResponsibleID *string
	// Notifiable marks entries worth surfacing as "new message" alerts.
	// Filler, status-update and escalation bot messages carry false.
	Notifiable bool
	CreatedAt  time.Time
}
