package security

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/suportebot/helpdesk/pkg/util"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]{6}$`)

	reservedUsernames = map[string]struct{}{
		"admin":         {},
		"administrator": {},
		"root":          {},
		"system":        {},
		"suporte":       {},
		"support":       {},
	}
)

// Sanitize strips markup, escapes what remains and bounds the length.
// Every free-text field goes through here before persistence.
func Sanitize(input string, maxLen int) string {
	s := tagPattern.ReplaceAllString(input, "")
	s = html.EscapeString(s)
	s = strings.TrimSpace(s)
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		runes := []rune(s)
		s = string(runes[:maxLen])
	}
	return s
}

func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 30 {
		return util.NewValidationError(
			"Nome de usuário deve ter entre 3 e 30 caracteres.", nil)
	}
	if !usernamePattern.MatchString(username) {
		return util.NewValidationError(
			"Nome de usuário pode conter apenas letras, números, ponto, hífen e sublinhado.", nil)
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return util.NewValidationError("Nome de usuário não permitido.", nil)
	}
	return nil
}

func ValidateAccessCode(code string) error {
	if !digitsPattern.MatchString(code) {
		return util.NewValidationError(
			"Código de acesso deve ter exatamente 6 dígitos.", nil)
	}
	return nil
}

// ValidateUUID accepts the canonical 8-4-4-4-12 form only. uuid.Parse
// alone would also take braced, urn-prefixed and bare-hex variants.
func ValidateUUID(id string) error {
	if len(id) != 36 {
		return util.NewValidationError("Identificador inválido.", nil)
	}
	if _, err := uuid.Parse(id); err != nil {
		return util.NewValidationError("Identificador inválido.", nil)
	}
	return nil
}
