package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostExcerpt(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short text unchanged", "hello", "hello"},
		{"exactly fifteen", "123456789012345", "123456789012345"},
		{"long text cut", "Тестовый текст поста длиннее", "Тестовый текст "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Post{Text: tt.text}
			assert.Equal(t, tt.want, p.Excerpt())
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestGroupString(t *testing.T) {
	assert.Equal(t, "Cats", Group{Title: "Cats"}.String())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Leo Tolstoy", User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}.FullName())
	assert.Equal(t, "leo", User{Username: "leo"}.FullName())
}

func TestAppError(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", NewInternalError(base))

	assert.True(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.ErrorIs(t, err, base)

	fields := FieldErrors{}
	assert.False(t, fields.Has())
	fields.Add("text", "This field is required.")
	formErr := NewFormError(fields)
	assert.True(t, HasCode(formErr, CodeValidation))
	assert.Equal(t, []string{"This field is required."}, formErr.Fields.Get("text"))
}
