package server

import (
	"log/slog"

	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) signupEnabled() bool {
	return s.featureFlags.Enabled(featureflags.Signup, 0)
}

// SignupPage handles GET /auth/signup/
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.renderSignup(c, service.SignupForm{}, nil)
}

// Signup handles POST /auth/signup/
func (s *Server) Signup(c *fiber.Ctx) error {
	if !s.signupEnabled() {
		c.Status(fiber.StatusForbidden)
		return s.renderSignup(c, service.SignupForm{}, nil)
	}

	var form service.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	user, err := s.authService.Signup(c.UserContext(), form)
	if fields, ok := formErrors(err); ok {
		return s.renderSignup(c, form, fields)
	}
	if err != nil {
		return err
	}

	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) renderSignup(c *fiber.Ctx, form service.SignupForm, fields models.FieldErrors) error {
	data := s.page(c, "Зарегистрироваться")
	data.SignupEnabled = s.signupEnabled()
	data.Form = map[string]string{
		"first_name": form.FirstName,
		"last_name":  form.LastName,
		"username":   form.Username,
		"email":      form.Email,
	}
	data.Errors = fields
	return c.Render("users/signup.html", data)
}

// LoginPage handles GET /auth/login/
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.renderLogin(c, service.LoginForm{Next: c.Query("next")}, nil)
}

// Login handles POST /auth/login/
func (s *Server) Login(c *fiber.Ctx) error {
	var form service.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	user, err := s.authService.Authenticate(c.UserContext(), form)
	if fields, ok := formErrors(err); ok {
		return s.renderLogin(c, form, fields)
	}
	if err != nil {
		return err
	}

	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect(safeNext(form.Next), fiber.StatusFound)
}

func (s *Server) renderLogin(c *fiber.Ctx, form service.LoginForm, fields models.FieldErrors) error {
	data := s.page(c, "Войти")
	data.Form = map[string]string{"username": form.Username}
	data.Next = form.Next
	data.Errors = fields
	return c.Render("users/login.html", data)
}

// LogoutPage handles GET /auth/logout/. Signed-in callers get a form that
// posts the logout; the session is only ended by POST.
func (s *Server) LogoutPage(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return c.Render("users/logged_out.html", s.page(c, "Вы вышли из системы"))
	}
	return c.Render("users/logout_confirm.html", s.page(c, "Выйти"))
}

// Logout handles POST /auth/logout/
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if claims := currentSession(c); claims != nil {
		if err := s.tokens.Revoke(ctx, claims); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to revoke session", slog.String("error", err.Error()))
		}
	}
	s.clearSession(c)

	c.Locals(localsUserID, nil)
	c.Locals(localsUser, nil)
	c.Locals(localsSession, nil)

	return c.Render("users/logged_out.html", s.page(c, "Вы вышли из системы"))
}

// PasswordChangePage handles GET /auth/password_change/
func (s *Server) PasswordChangePage(c *fiber.Ctx) error {
	return s.renderPasswordChange(c, nil)
}

// PasswordChange handles POST /auth/password_change/
func (s *Server) PasswordChange(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	var form service.PasswordChangeForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	err := s.authService.ChangePassword(c.UserContext(), userID, form)
	if fields, ok := formErrors(err); ok {
		return s.renderPasswordChange(c, fields)
	}
	if err != nil {
		return err
	}
	return c.Redirect("/auth/password_change/done/", fiber.StatusFound)
}

func (s *Server) renderPasswordChange(c *fiber.Ctx, fields models.FieldErrors) error {
	data := s.page(c, "Изменить пароль")
	data.Errors = fields
	return c.Render("users/password_change_form.html", data)
}

// PasswordChangeDone handles GET /auth/password_change/done/
func (s *Server) PasswordChangeDone(c *fiber.Ctx) error {
	return c.Render("users/password_change_done.html", s.page(c, "Пароль изменён"))
}
