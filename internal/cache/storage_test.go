package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fiber.Storage = (*Storage)(nil)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewStorage(rdb, "csrf:"), mr
}

func TestStorage_GetSetDelete(t *testing.T) {
	s, mr := newTestStorage(t)

	val, err := s.Get("token")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("token", []byte("+"), time.Hour))
	assert.True(t, mr.Exists("csrf:token"))
	assert.Equal(t, time.Hour, mr.TTL("csrf:token"))

	val, err = s.Get("token")
	require.NoError(t, err)
	assert.Equal(t, []byte("+"), val)

	require.NoError(t, s.Delete("token"))
	val, err = s.Get("token")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestStorage_IgnoresEmpty(t *testing.T) {
	s, mr := newTestStorage(t)

	require.NoError(t, s.Set("", []byte("x"), 0))
	require.NoError(t, s.Set("empty", nil, 0))
	assert.Empty(t, mr.Keys())
}

func TestStorage_ResetKeepsOtherKeys(t *testing.T) {
	s, mr := newTestStorage(t)
	require.NoError(t, mr.Set("group:cats", "{}"))
	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Set("b", []byte("2"), 0))

	require.NoError(t, s.Reset())
	assert.Equal(t, []string{"group:cats"}, mr.Keys())
	assert.NoError(t, s.Close())
}

func TestStorage_RedisDown(t *testing.T) {
	s, mr := newTestStorage(t)
	mr.Close()

	_, err := s.Get("token")
	assert.Error(t, err)
}
