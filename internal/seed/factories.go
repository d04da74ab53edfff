// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password every seeded user can log in with.
const DefaultPassword = "yatube-demo-pass"

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Factory builds domain entities with fake content. It does not persist them.
type Factory struct {
	passwordHash string
	maxDays      int
	now          func() time.Time
}

// NewFactory hashes password once for all users it builds.
func NewFactory(password string, bcryptCost int, maxDays int) (*Factory, error) {
	if password == "" {
		password = DefaultPassword
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if maxDays <= 0 {
		maxDays = 90
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{passwordHash: string(hash), maxDays: maxDays, now: time.Now}, nil
}

// suffix keeps generated usernames and slugs unique across seeding runs.
func suffix() string {
	return strings.ReplaceAll(gofakeit.UUID(), "-", "")[:6]
}

// BuildUser returns a user with a fake name and the factory password.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	user := &models.User{
		Username:  strings.ToLower(gofakeit.Username()) + "_" + suffix(),
		Password:  f.passwordHash,
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(gofakeit.Email()),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildGroup returns a group with a slug made of a fake word.
func (f *Factory) BuildGroup(overrides ...func(*models.Group)) *models.Group {
	word := nonSlugChars.ReplaceAllString(strings.ToLower(gofakeit.Word()), "")
	if word == "" {
		word = "group"
	}
	description := gofakeit.Sentence(12)

	group := &models.Group{
		Title:       strings.ToUpper(word[:1]) + word[1:] + " " + gofakeit.Word(),
		Slug:        word + "-" + suffix(),
		Description: &description,
	}
	if len(group.Title) > models.GroupTitleMaxLen {
		group.Title = group.Title[:models.GroupTitleMaxLen]
	}
	for _, override := range overrides {
		override(group)
	}
	return group
}

// BuildPost returns a post by author, in group when it is not nil, dated
// somewhere within the factory's window.
func (f *Factory) BuildPost(author *models.User, group *models.Group, overrides ...func(*models.Post)) *models.Post {
	back := time.Duration(gofakeit.Number(0, f.maxDays*24*60)) * time.Minute
	post := &models.Post{
		Text:     gofakeit.Paragraph(1, gofakeit.Number(1, 4), 12, "\n"),
		PubDate:  f.now().Add(-back),
		AuthorID: author.ID,
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}
