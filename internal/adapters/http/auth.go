package http

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

const sessionLocal = "session"

// SessionMiddleware resolves the caller's session from an operator token sent
// as "Authorization: Bearer <token>" or, for WebSocket upgrades, "?token=".
func SessionMiddleware(operatorToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(sessionLocal, domain.Session{Operator: tokenMatches(presentedToken(c), operatorToken)})
		return c.Next()
	}
}

// RequireOperator rejects requests whose session cannot edit routes.
func RequireOperator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionFrom(c).CanEdit() {
			return errUnauthorized(c, "operator token required")
		}
		return c.Next()
	}
}

func sessionFrom(c *fiber.Ctx) domain.Session {
	s, _ := c.Locals(sessionLocal).(domain.Session)
	return s
}

func presentedToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Query("token")
}

func tokenMatches(presented, expected string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
