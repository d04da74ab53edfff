package server

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

const (
	csrfCookie    = "csrftoken"
	csrfFormField = "csrf_token"
	csrfKeyPrefix = "csrf:"

	localsCSRF = "csrf"
)

var errCSRFFailed = fiber.NewError(fiber.StatusForbidden, "CSRF verification failed")

// CSRF requires every unsafe request to submit the csrftoken cookie value in
// the csrf_token form field. Tokens live in Redis when it is configured, so
// any instance can verify them.
func (s *Server) CSRF() fiber.Handler {
	cfg := csrf.Config{
		Next:           skipCSRF,
		KeyLookup:      "form:" + csrfFormField,
		CookieName:     csrfCookie,
		CookieSecure:   s.config.IsProduction(),
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     time.Duration(s.config.SessionTTLHours) * time.Hour,
		ContextKey:     localsCSRF,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.WarnContext(c.UserContext(), "csrf verification failed",
				slog.String("path", c.Path()), slog.String("error", err.Error()))
			return errCSRFFailed
		},
	}
	if s.redis != nil {
		cfg.Storage = cache.NewStorage(s.redis, csrfKeyPrefix)
	}
	return csrf.New(cfg)
}

// skipCSRF leaves health checks, metrics and assets without a token cookie.
func skipCSRF(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/health/") || p == "/metrics" || strings.HasPrefix(p, "/static/")
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(localsCSRF).(string)
	return token
}

func isCSRFFailure(err error) bool {
	return errors.Is(err, errCSRFFailed)
}
