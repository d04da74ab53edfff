package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		attrs    []string
		wantErrs int
	}{
		{"Valid", "correct-horse-battery", []string{"leo"}, 0},
		{"Exactly Min Length", "Zq8!vLp2", nil, 0},
		{"Too Short", "Zq8!vL", nil, 1},
		{"Entirely Numeric", "90817263545", nil, 1},
		{"Common", "password123", nil, 1},
		{"Common Case Insensitive", "PassWord123", nil, 1},
		{"Similar To Username", "leotolstoy1", []string{"leotolstoy"}, 1},
		{"Short Numeric Common", "1234", nil, 3},
		{"Unicode Characters", "Ångström-Pass", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidatePassword(tt.password, tt.attrs...)
			assert.Len(t, problems, tt.wantErrs, "problems: %v", problems)
		})
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.0, similarity("abc", "abc"), 0.0001)
	assert.InDelta(t, 0.0, similarity("abc", "xyz"), 0.0001)
	assert.InDelta(t, 6.0/7.0, similarity("abcd", "abc"), 0.0001)
	assert.True(t, tooSimilar("johnsmith1", "johnsmith@example.com"))
	assert.False(t, tooSimilar("wild-orchid-42", "leo"))
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Valid With Symbols", "a.b+c-d@e", false},
		{"Cyrillic", "лев", false},
		{"Empty", "", true},
		{"Illegal Chars", "user name", true},
		{"Too Long", strings.Repeat("a", 151), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateGroupSlug(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateGroupSlug("test-slug_1"))
	assert.Error(t, ValidateGroupSlug(""))
	assert.Error(t, ValidateGroupSlug("has space"))
	assert.Error(t, ValidateGroupSlug(strings.Repeat("a", 51)))
}

type sampleForm struct {
	Text  string `form:"text" validate:"required"`
	Title string `form:"title" validate:"max=5"`
	Email string `form:"email" validate:"omitempty,email"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Struct(sampleForm{Text: "hi", Title: "abc"}))

	fields := Struct(sampleForm{Title: "абвгдеж", Email: "nope"})
	require.NotNil(t, fields)
	assert.Equal(t, []string{msgRequired}, fields.Get("text"))
	assert.Equal(t, []string{"Ensure this value has at most 5 characters (it has 7)."}, fields.Get("title"))
	assert.Equal(t, []string{msgEmail}, fields.Get("email"))
}
