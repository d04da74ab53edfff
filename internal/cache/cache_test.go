package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedGroup struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = Close()
		mr.Close()
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedGroup) func() error {
		return func() error {
			calls++
			*dest = cachedGroup{ID: 1, Title: "Cats"}
			return nil
		}
	}

	var first cachedGroup
	require.NoError(t, Aside(ctx, GroupKey("cats"), &first, GroupTTL, fetch(&first)))
	assert.Equal(t, "Cats", first.Title)
	assert.True(t, mr.Exists("group:cats"))

	var second cachedGroup
	require.NoError(t, Aside(ctx, GroupKey("cats"), &second, GroupTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	InvalidateGroup(ctx, "cats")
	assert.False(t, mr.Exists("group:cats"))
}

func TestAside_TTL(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	var g cachedGroup
	require.NoError(t, Aside(ctx, GroupKey("dogs"), &g, time.Minute, func() error {
		g = cachedGroup{ID: 2, Title: "Dogs"}
		return nil
	}))
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("group:dogs"))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("boom")

	var g cachedGroup
	err := Aside(context.Background(), GroupKey("x"), &g, GroupTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("group:x"))
}

func TestAside_NoClient(t *testing.T) {
	SetClient(nil)
	var g cachedGroup
	err := Aside(context.Background(), GroupKey("x"), &g, GroupTTL, func() error {
		g.Title = "fresh"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", g.Title)

	found, err := GetJSON(context.Background(), "k", &g)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestAside_RedisDownFallsThrough(t *testing.T) {
	mr := setupMiniredis(t)
	mr.Close()

	var g cachedGroup
	err := Aside(context.Background(), GroupKey("x"), &g, GroupTTL, func() error {
		g.Title = "from db"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from db", g.Title)
}
