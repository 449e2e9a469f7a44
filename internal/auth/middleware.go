package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/pkg/util"
)

const principalKey = "auth.principal"

// Principal is the authenticated caller, available to handlers after the
// middleware runs.
type Principal struct {
	UserID   string
	Username string
	Role     domain.UserRole
}

func (p Principal) IsSupport() bool {
	return p.Role == domain.RoleSupport
}

// Middleware verifies the bearer token and stores the Principal in the
// request locals.
func Middleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return util.NewUnauthorized("Autenticação necessária.")
		}
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			return util.NewUnauthorized("Cabeçalho de autorização inválido.")
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			return util.NewUnauthorized("Sessão inválida ou expirada.")
		}

		c.Locals(principalKey, Principal{
			UserID:   claims.Subject,
			Username: claims.Username,
			Role:     claims.Role,
		})
		return c.Next()
	}
}

// RequireSupport rejects callers that are not support staff.
func RequireSupport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		if !ok || !p.IsSupport() {
			return util.NewForbidden("Acesso restrito à equipe de suporte.")
		}
		return c.Next()
	}
}

func PrincipalFromContext(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}
