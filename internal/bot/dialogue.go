package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/suportebot/helpdesk/internal/domain"
)

// Step is one scripted bot message.
type Step struct {
	Message string
	Action  domain.BotAction
}

// Reply is the bot's answer to a user message. MarkResolved signals that
// the caller must close the ticket as a side effect of this reply.
type Reply struct {
	Message      string
	Action       domain.BotAction
	Intent       string
	MarkResolved bool
}

type intent struct {
	name         string
	keywords     []string
	reply        func(t *domain.Ticket, elapsed time.Duration) string
	markResolved bool
}

// intents is matched in order, first hit wins. Ordering matters:
// "já resolvi" belongs to resolucao_confirmada even though cancelamento
// also lists it.
var intents = []intent{
	{
		name:     "resolucao_confirmada",
		keywords: []string{"resolvido", "concluído", "finalizado", "problema solucionado", "já resolvi", "funcionando"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "🎉 **Perfeito!** Marquei seu chamado como RESOLVIDO. Obrigado por confirmar! Se tiver mais alguma necessidade, estarei aqui para ajudar."
		},
		markResolved: true,
	},
	{
		name:     "agradecimento",
		keywords: []string{"obrigado", "obrigada", "agradeço", "valeu", "agradecido", "agradecida"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "😊 De nada! Estou aqui para ajudar. Se tiver mais alguma dúvida, é só perguntar."
		},
	},
	{
		name:     "prazo",
		keywords: []string{"prazo", "tempo", "quando", "quanto tempo", "demora", "prazos"},
		reply: func(t *domain.Ticket, _ time.Duration) string {
			return fmt.Sprintf("⏰ Baseado na urgência **%s** do seu chamado, nosso tempo médio de resposta é de 10-20 minutos. Nossa equipe está trabalhando para resolvê-lo o mais rápido possível!", t.UrgencyLabel())
		},
	},
	{
		name:     "status",
		keywords: []string{"status", "andamento", "atualização", "situação", "andando"},
		reply: func(t *domain.Ticket, elapsed time.Duration) string {
			return fmt.Sprintf("📊 **Status Atual:** %s<br>🚨 **Urgência:** %s<br>⏱️ **Tempo decorrido:** %s", t.StatusLabel(), t.UrgencyLabel(), FormatElapsed(elapsed))
		},
	},
	{
		name:     "contato",
		keywords: []string{"contato", "telefone", "email", "falar", "contatar", "ligar"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "📞 Você pode entrar em contato com nosso suporte pelo:<br>• 📧 Email: suporte@empresa.com<br>• 📞 Telefone: (11) 9999-9999<br>• 💬 Este chat mesmo!"
		},
	},
	{
		name:     "urgencia",
		keywords: []string{"urgente", "urgência", "rápido", "prioridade", "emergência", "emergencia"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "🚨 Entendi que é urgente! Estou notificando nossa equipe sobre a prioridade. Em breve teremos novidades."
		},
	},
	{
		name:     "departamento_errado",
		keywords: []string{"departamento errado", "departamento incorreto", "setor errado", "mudei departamento"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "🔄 Entendi que o departamento está incorreto. Vou encaminhar para o departamento correto. Qual seria o departamento adequado para seu chamado?"
		},
	},
	{
		name:     "cancelamento",
		keywords: []string{"não é mais necessario", "não preciso mais", "cancelar", "resolvido sozinho", "já resolvi"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "✅ **Entendido!** Cancelei seu chamado e marquei como resolvido. Se precisar de ajuda novamente, é só abrir um novo chamado!"
		},
		markResolved: true,
	},
	{
		name:     "saudacao",
		keywords: []string{"oi", "olá", "ola", "bom dia", "boa tarde", "boa noite"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "👋 Olá! Em que posso ajudá-lo hoje?"
		},
	},
	{
		name:     "despedida",
		keywords: []string{"tchau", "adeus", "até logo", "flw", "vlw"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "👋 Até logo! Estarei aqui se precisar de mais alguma coisa."
		},
	},
	{
		name:     "ajuda",
		keywords: []string{"help", "ajuda", "socorro", "auxílio"},
		reply: func(_ *domain.Ticket, _ time.Duration) string {
			return "🆘 Estou aqui para ajudar! Pode me contar qual é o problema ou dúvida que você está tendo?"
		},
	},
}

// OpeningSequence is the scripted run of messages the bot posts when a
// ticket is created. Only the first step is persisted at creation time;
// the client replays the rest.
func OpeningSequence(t *domain.Ticket, departmentName string) []Step {
	return []Step{
		{
			Message: fmt.Sprintf("👋 Olá, %s!", t.RequesterName),
			Action:  domain.BotActionGreeting,
		},
		{
			Message: fmt.Sprintf("✅ Recebi seu chamado do departamento de %s.", departmentName),
			Action:  domain.BotActionConfirmation,
		},
		{
			Message: fmt.Sprintf("📋 **Confirmação do Chamado:**<br>🏠 Localização: %s<br>📝 Problema: \"%s\"<br>🆔 ID: %s",
				t.LocationLabel(), t.Title, t.ReadableCode),
			Action: domain.BotActionConfirmation,
		},
		{
			Message: "🔍 Analisando e classificando o problema...",
			Action:  domain.BotActionClassification,
		},
		{
			Message: fmt.Sprintf("📋 **Classificação:** %s<br>📊 **Status:** %s", t.UrgencyLabel(), t.StatusLabel()),
			Action:  domain.BotActionClassification,
		},
		{
			Message: "⏱️ **Tempo estimado de atendimento:** até 10 minutos",
			Action:  domain.BotActionEstimatedTime,
		},
		{
			Message: "💬 Enquanto isso, se precisar de mais alguma coisa, é só me avisar!",
			Action:  domain.BotActionEstimatedTime,
		},
	}
}

// NewTicketBroadcast is the message fanned out to every support user
// when a ticket is created.
func NewTicketBroadcast(t *domain.Ticket, departmentName string) string {
	return fmt.Sprintf("🚨 **NOVO CHAMADO CRIADO**<br>📝 %s<br>👤 %s<br>🏢 %s<br>🆔 %s",
		t.Title, t.RequesterName, departmentName, t.ReadableCode)
}

func TimeCheckMessage() string {
	return "⏰ **Verificação automática:** Já se passaram 10 minutos. O suporte já atendeu seu chamado? Se sim, por favor confirme se foi resolvido."
}

func UrgentCheckMessage() string {
	return "🚨 **Verificação urgente:** Já se passaram 15 minutos. Caso o suporte já tenha atendido, por favor confirme a resolução para finalizarmos o chamado."
}

func SupportFinalizationMessage() string {
	return "✅ **Chamado finalizado!** O suporte confirmou que o atendimento foi concluído com sucesso."
}

func RequesterFinalizationMessage() string {
	return "🎉 **Excelente!** Chamado finalizado com sucesso. Obrigado por confirmar a resolução!"
}

// ClosingThankYouMessage follows the finalization message whenever a
// ticket is closed through the chat.
func ClosingThankYouMessage() string {
	return "🙏 **Obrigado por utilizar nosso suporte!** Se surgir qualquer outro problema, é só abrir um novo chamado. Até a próxima!"
}

// FallbackReply is used when building the smart reply fails.
func FallbackReply() Reply {
	return Reply{
		Message: "🤖 Obrigado pela sua mensagem! Estou processando sua solicitação.",
		Action:  domain.BotActionDefaultReply,
		Intent:  "nao_identificada",
	}
}

// MatchIntent produces the bot's answer to a free-form user message.
func MatchIntent(message string, t *domain.Ticket, role domain.UserRole, elapsed time.Duration) Reply {
	if t.IsResolved() {
		return Reply{
			Message: "✅ **Este chamado já foi finalizado!** Se precisar de mais ajuda, por favor abra um novo chamado.",
			Action:  domain.BotActionAlreadyClosed,
			Intent:  "chamado_finalizado",
		}
	}

	lower := strings.ToLower(message)
	for _, in := range intents {
		for _, kw := range in.keywords {
			if strings.Contains(lower, kw) {
				return Reply{
					Message:      in.reply(t, elapsed),
					Action:       domain.BotActionSmartReply,
					Intent:       in.name,
					MarkResolved: in.markResolved,
				}
			}
		}
	}

	text := "🤖 Entendi sua mensagem! Nossa equipe de suporte já foi notificada e em breve dará sequência ao seu chamado. Enquanto isso, posso ajudar com alguma informação específica?"
	if role == domain.RoleSupport {
		text = "🤖 Entendi sua mensagem! Como membro do suporte, você pode atualizar o status do chamado ou interagir com o usuário para resolver o problema."
	}
	return Reply{
		Message: text,
		Action:  domain.BotActionDefaultReply,
		Intent:  "nao_identificada",
	}
}

// FormatElapsed renders a duration the way the chat presents it.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	default:
		return fmt.Sprintf("%dmin", minutes)
	}
}
