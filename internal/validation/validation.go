// Package validation checks submitted form values and produces per-field
// error messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"yatube/internal/models"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the FieldErrors key for errors not tied to one field.
const NonFieldErrors = ""

const (
	msgRequired = "This field is required."
	msgEmail    = "Enter a valid email address."
	msgUsername = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgSlug     = "Enter a valid “slug” consisting of letters, numbers, underscores or hyphens."
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s by its `validate` tags. Messages are keyed by the
// field's `form` tag. A nil result means s is valid.
func Struct(s any) models.FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fields := models.FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields.Add(NonFieldErrors, err.Error())
		return fields
	}
	for _, fe := range verrs {
		fields.Add(fe.Field(), message(fe))
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(fe.Value().(string))))
	case "email":
		return msgEmail
	case "username":
		return msgUsername
	case "slug":
		return msgSlug
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// ValidateUsername checks a username the way the signup form does.
func ValidateUsername(username string) error {
	if err := validate.Var(username, "required,max=150,username"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Tag() {
			case "required":
				return errors.New(msgRequired)
			case "max":
				return errors.New("Ensure this value has at most 150 characters.")
			}
		}
		return errors.New(msgUsername)
	}
	return nil
}

// ValidateGroupSlug checks a group slug for the admin tooling.
func ValidateGroupSlug(slug string) error {
	if err := validate.Var(slug, fmt.Sprintf("required,max=%d,slug", models.GroupSlugMaxLen)); err != nil {
		return errors.New(msgSlug)
	}
	return nil
}
