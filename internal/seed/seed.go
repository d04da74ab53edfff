package seed

import (
	"context"
	"fmt"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

const batchSize = 100

// Options configures a seeding run.
type Options struct {
	Users      int
	Groups     int
	Posts      int
	Clean      bool
	Password   string
	BcryptCost int
	MaxDays    int
}

// Result counts what a run created.
type Result struct {
	Users  int
	Groups int
	Posts  int
}

// Seeder fills the database with fake users, groups and posts.
type Seeder struct {
	db   *gorm.DB
	opts Options
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts}
}

// ClearAll removes every post, group and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Post{}, &models.Group{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Run optionally clears the database and then creates the configured number
// of users, groups and posts. Each post gets a random author and, three times
// out of four, a random group.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	if s.opts.Users <= 0 && s.opts.Posts > 0 {
		return nil, fmt.Errorf("cannot create %d posts without users", s.opts.Posts)
	}

	if s.opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
		middleware.Logger.InfoContext(ctx, "database cleared")
	}

	factory, err := NewFactory(s.opts.Password, s.opts.BcryptCost, s.opts.MaxDays)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	result := &Result{}

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		users = append(users, factory.BuildUser())
	}
	if len(users) > 0 {
		if err := db.CreateInBatches(users, batchSize).Error; err != nil {
			return nil, fmt.Errorf("create users: %w", err)
		}
	}
	result.Users = len(users)

	groups := make([]*models.Group, 0, s.opts.Groups)
	for i := 0; i < s.opts.Groups; i++ {
		groups = append(groups, factory.BuildGroup())
	}
	if len(groups) > 0 {
		if err := db.CreateInBatches(groups, batchSize).Error; err != nil {
			return nil, fmt.Errorf("create groups: %w", err)
		}
	}
	result.Groups = len(groups)

	posts := make([]*models.Post, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		var group *models.Group
		if len(groups) > 0 && gofakeit.Number(1, 4) > 1 {
			group = groups[gofakeit.Number(0, len(groups)-1)]
		}
		posts = append(posts, factory.BuildPost(author, group))
	}
	if len(posts) > 0 {
		if err := db.Omit("Author", "Group").CreateInBatches(posts, batchSize).Error; err != nil {
			return nil, fmt.Errorf("create posts: %w", err)
		}
	}
	result.Posts = len(posts)

	middleware.Logger.InfoContext(ctx, "seeding complete",
		slog.Int("users", result.Users), slog.Int("groups", result.Groups), slog.Int("posts", result.Posts))
	return result, nil
}
