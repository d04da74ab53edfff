package service

import (
	"context"
	"log/slog"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgBadCredentials   = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	msgPasswordMismatch = "The two password fields didn’t match."
	msgUsernameTaken    = "A user with that username already exists."
	msgOldPasswordWrong = "Your old password was entered incorrectly. Please enter it again."
)

// SignupForm is the registration form.
type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,max=254,email"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required"`
}

// LoginForm is the login form.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

// PasswordChangeForm is the password change form.
type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" validate:"required"`
	NewPassword1 string `form:"new_password1" validate:"required"`
	NewPassword2 string `form:"new_password2" validate:"required"`
}

// AuthService registers users and checks their credentials.
type AuthService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

// NewAuthService creates an AuthService. A zero bcryptCost uses bcrypt.DefaultCost.
func NewAuthService(userRepo repository.UserRepository, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{userRepo: userRepo, bcryptCost: bcryptCost}
}

func formFailed(form string, fields models.FieldErrors) error {
	observability.FormRejections.WithLabelValues(form).Inc()
	return models.NewFormError(fields)
}

// Signup validates the form and creates the user.
func (s *AuthService) Signup(ctx context.Context, form SignupForm) (*models.User, error) {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	fields := validation.Struct(form)
	if fields == nil {
		fields = models.FieldErrors{}
	}

	if form.Password1 != "" && form.Password2 != "" {
		if form.Password1 != form.Password2 {
			fields.Add("password2", msgPasswordMismatch)
		} else {
			for _, problem := range validation.ValidatePassword(form.Password2,
				form.Username, form.FirstName, form.LastName, form.Email) {
				fields.Add("password2", problem)
			}
		}
	}

	if len(fields.Get("username")) == 0 {
		_, err := s.userRepo.GetByUsername(ctx, form.Username)
		switch {
		case err == nil:
			fields.Add("username", msgUsernameTaken)
		case !models.HasCode(err, models.CodeNotFound):
			return nil, err
		}
	}

	if fields.Has() {
		return nil, formFailed("signup", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  form.Username,
		Password:  string(hash),
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			return nil, formFailed("signup", models.FieldErrors{"username": {msgUsernameTaken}})
		}
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Authenticate returns the user whose credentials match the form.
func (s *AuthService) Authenticate(ctx context.Context, form LoginForm) (*models.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	if fields := validation.Struct(form); fields != nil {
		return nil, formFailed("login", fields)
	}

	user, err := s.userRepo.GetByUsername(ctx, form.Username)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			observability.LoginFailures.Inc()
			return nil, formFailed("login", models.FieldErrors{validation.NonFieldErrors: {msgBadCredentials}})
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		observability.LoginFailures.Inc()
		middleware.Logger.InfoContext(ctx, "login failed", slog.Uint64("user_id", uint64(user.ID)))
		return nil, formFailed("login", models.FieldErrors{validation.NonFieldErrors: {msgBadCredentials}})
	}

	return user, nil
}

// ChangePassword checks the old password and stores the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, form PasswordChangeForm) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	fields := validation.Struct(form)
	if fields == nil {
		fields = models.FieldErrors{}
	}

	if form.OldPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.OldPassword)) != nil {
			fields.Add("old_password", msgOldPasswordWrong)
		}
	}
	if form.NewPassword1 != "" && form.NewPassword2 != "" {
		if form.NewPassword1 != form.NewPassword2 {
			fields.Add("new_password2", msgPasswordMismatch)
		} else {
			for _, problem := range validation.ValidatePassword(form.NewPassword2,
				user.Username, user.FirstName, user.LastName, user.Email) {
				fields.Add("new_password2", problem)
			}
		}
	}

	if fields.Has() {
		return formFailed("password_change", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.NewPassword1), s.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "password changed", slog.Uint64("user_id", uint64(user.ID)))
	return nil
}
