package main

import (
	"bytes"
	"context"
	"testing"

	"yatube/internal/cache"
	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T) (*admin, *gorm.DB, *bytes.Buffer) {
	t.Helper()
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	out := &bytes.Buffer{}
	return &admin{
		users:  repository.NewUserRepository(db),
		groups: repository.NewGroupRepository(db),
		out:    out,
	}, db, out
}

func TestGroupCreate(t *testing.T) {
	a, db, out := setup(t)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"group-create", "cats", "Cats", "All", "about", "cats"}))
	assert.Contains(t, out.String(), "Created group cats")

	var g models.Group
	require.NoError(t, db.Where("slug = ?", "cats").First(&g).Error)
	assert.Equal(t, "Cats", g.Title)
	require.NotNil(t, g.Description)
	assert.Equal(t, "All about cats", *g.Description)

	tests := []struct {
		name string
		args []string
	}{
		{"duplicate slug", []string{"group-create", "cats", "Other cats"}},
		{"invalid slug", []string{"group-create", "no spaces", "Title"}},
		{"empty title", []string{"group-create", "dogs", "  "}},
		{"missing title", []string{"group-create", "dogs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, a.run(ctx, tt.args))
		})
	}
}

func TestGroupDelete_KeepsPosts(t *testing.T) {
	a, db, _ := setup(t)
	ctx := context.Background()

	user := &models.User{Username: "leo", Password: "hash"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, a.run(ctx, []string{"group-create", "cats", "Cats"}))
	var g models.Group
	require.NoError(t, db.Where("slug = ?", "cats").First(&g).Error)
	post := &models.Post{Text: "meow", AuthorID: user.ID, GroupID: &g.ID}
	require.NoError(t, db.Omit("Author", "Group").Create(post).Error)

	require.NoError(t, a.run(ctx, []string{"group-delete", "cats"}))

	var after models.Post
	require.NoError(t, db.First(&after, post.ID).Error)
	assert.Nil(t, after.GroupID)
	assert.Equal(t, "meow", after.Text)

	assert.Error(t, a.run(ctx, []string{"group-delete", "cats"}))
}

func TestUserDelete_RemovesPosts(t *testing.T) {
	a, db, out := setup(t)
	ctx := context.Background()

	leo := &models.User{Username: "leo", Password: "hash"}
	anna := &models.User{Username: "anna", Password: "hash"}
	require.NoError(t, db.Create(leo).Error)
	require.NoError(t, db.Create(anna).Error)
	for _, p := range []*models.Post{
		{Text: "one", AuthorID: leo.ID},
		{Text: "two", AuthorID: leo.ID},
		{Text: "three", AuthorID: anna.ID},
	} {
		require.NoError(t, db.Omit("Author", "Group").Create(p).Error)
	}

	require.NoError(t, a.run(ctx, []string{"user-delete", "leo"}))
	assert.Contains(t, out.String(), "Deleted user leo")

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	assert.Error(t, a.run(ctx, []string{"user-delete", "leo"}))
}

func TestListGroups(t *testing.T) {
	a, _, out := setup(t)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"list-groups"}))
	assert.Contains(t, out.String(), "No groups found")

	require.NoError(t, a.run(ctx, []string{"group-create", "dogs", "Dogs"}))
	require.NoError(t, a.run(ctx, []string{"group-create", "cats", "Cats"}))
	out.Reset()
	require.NoError(t, a.run(ctx, []string{"list-groups"}))
	assert.Contains(t, out.String(), "Slug: cats | Title: Cats")
	assert.Contains(t, out.String(), "Slug: dogs | Title: Dogs")
}

func TestUnknownCommand(t *testing.T) {
	a, _, _ := setup(t)
	assert.Error(t, a.run(context.Background(), []string{"promote"}))
	assert.Error(t, a.run(context.Background(), nil))
}
