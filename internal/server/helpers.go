package server

import (
	"errors"

	"yatube/internal/models"
	"yatube/internal/render"

	"github.com/gofiber/fiber/v2"
)

// page returns the data every template expects: title, current path,
// logged-in user, CSRF token and footer year.
func (s *Server) page(c *fiber.Ctx, title string) *render.Data {
	return &render.Data{
		Title:     title,
		Path:      c.Path(),
		User:      currentUser(c),
		CSRFToken: csrfToken(c),
		Year:      s.now().Year(),
	}
}

// formErrors reports the field messages carried by a rejected form submission.
func formErrors(err error) (models.FieldErrors, bool) {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation && appErr.Fields != nil {
		return appErr.Fields, true
	}
	return nil, false
}

// parseID extracts a positive integer route parameter. Anything else does
// not match a post, so it is NOT_FOUND.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewNotFoundError("Post", c.Params(param))
	}
	return uint(id), nil
}
