package question

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewCache(client, time.Minute)
}

func TestCacheRoundTripIgnoresCaseAndSpace(t *testing.T) {
	ctx := context.Background()
	mr, cache := newTestCache(t)

	require.NoError(t, cache.Set(ctx, Request{Role: "Fullstack", Stack: "React/Node"}, remotePrompts()))
	assert.True(t, mr.Exists("interview:questions:fullstack:react/node"))
	assert.Equal(t, time.Minute, mr.TTL("interview:questions:fullstack:react/node"))

	got, err := cache.Get(ctx, Request{Role: " fullstack ", Stack: "react/node"})
	require.NoError(t, err)
	assert.Equal(t, remotePrompts(), got)
}

func TestCacheMiss(t *testing.T) {
	_, cache := newTestCache(t)

	got, err := cache.Get(context.Background(), Request{Role: "backend", Stack: "Go"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheEvictsCorruptEntry(t *testing.T) {
	mr, cache := newTestCache(t)
	require.NoError(t, mr.Set("interview:questions:backend:go", "{not json"))

	got, err := cache.Get(context.Background(), Request{Role: "backend", Stack: "go"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("interview:questions:backend:go"))
}

func TestCacheReportsConnectionErrors(t *testing.T) {
	mr, cache := newTestCache(t)
	mr.Close()

	_, err := cache.Get(context.Background(), Request{Role: "backend", Stack: "go"})
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), Request{Role: "backend"}, remotePrompts()))
}
