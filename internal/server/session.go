package server

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "sessionid"
	loginPath     = "/auth/login/"

	localsUserID  = middleware.LocalsUserID
	localsUser    = middleware.LocalsUser
	localsSession = "session"
)

// Session resolves the session cookie into the current user. Invalid,
// expired or revoked cookies are cleared and the request continues anonymously.
func (s *Server) Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(sessionCookie)
		if raw == "" {
			return c.Next()
		}

		ctx := c.UserContext()
		claims, err := s.tokens.Parse(ctx, raw)
		if err != nil {
			s.clearSession(c)
			return c.Next()
		}

		user, err := s.userRepo.GetByID(ctx, claims.UserID)
		if err != nil {
			if !models.HasCode(err, models.CodeNotFound) {
				middleware.Logger.WarnContext(ctx, "failed to load session user",
					slog.Uint64("user_id", uint64(claims.UserID)), slog.String("error", err.Error()))
			}
			s.clearSession(c)
			return c.Next()
		}

		c.Locals(localsUserID, user.ID)
		c.Locals(localsUser, user)
		c.Locals(localsSession, claims)
		c.SetUserContext(middleware.WithUserID(ctx, user.ID))
		return c.Next()
	}
}

// LoginRequired redirects anonymous callers to the login page, carrying the
// requested path and query in next.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := currentUserID(c); ok {
			return c.Next()
		}
		return c.Redirect(loginURL(c.OriginalURL()), fiber.StatusFound)
	}
}

// loginURL builds the login redirect for next. Slashes stay readable.
func loginURL(next string) string {
	if next == "" {
		return loginPath
	}
	return loginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// safeNext returns next when it is a path on this site, otherwise "/".
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localsUserID).(uint)
	return id, ok && id != 0
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localsUser).(*models.User)
	return u
}

func currentSession(c *fiber.Ctx) *service.SessionClaims {
	claims, _ := c.Locals(localsSession).(*service.SessionClaims)
	return claims
}

// startSession issues a token for user and sets it as the session cookie.
func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
