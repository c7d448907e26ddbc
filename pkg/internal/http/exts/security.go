package exts

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// VerifySlackSignature rejects requests not signed with secret.
// An empty secret disables the check.
func VerifySlackSignature(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(secret) == 0 {
			return c.Next()
		}

		header := http.Header{}
		for _, key := range []string{"X-Slack-Signature", "X-Slack-Request-Timestamp"} {
			header.Set(key, c.Get(key))
		}

		verifier, err := slack.NewSecretsVerifier(header, secret)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected a slack request without valid signature headers.")
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if _, err := verifier.Write(c.Body()); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if err := verifier.Ensure(); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid request signature")
		}

		return c.Next()
	}
}

// EnsureAdmin checks the bearer token of an admin request.
// Admin endpoints are closed when no token is configured.
func EnsureAdmin(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(token) == 0 {
			return fiber.NewError(fiber.StatusForbidden, "admin endpoints are disabled")
		}
		provided := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid admin token")
		}
		return c.Next()
	}
}
