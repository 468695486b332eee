package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func setupRedis(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return New(client), mr
}

func TestConnect_URLAndFailure(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = Connect(context.Background(), "redis://%zz")
	assert.ErrorContains(t, err, "invalid REDIS_URL")
}

func TestAside_MissThenHit(t *testing.T) {
	c, mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *[]feedItem) func() error {
		return func() error {
			calls++
			*dest = []feedItem{{ID: "1", Title: "Calculus"}}
			return nil
		}
	}

	var first []feedItem
	require.NoError(t, c.Aside(ctx, KeyResourceFeed, &first, time.Minute, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(KeyResourceFeed))
	assert.Equal(t, time.Minute, mr.TTL(KeyResourceFeed))

	var second []feedItem
	require.NoError(t, c.Aside(ctx, KeyResourceFeed, &second, time.Minute, fetch(&second)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	c, mr := setupRedis(t)

	var dest []feedItem
	err := c.Aside(context.Background(), KeyDiscussionFeed, &dest, time.Minute, func() error {
		return errors.New("db down")
	})

	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists(KeyDiscussionFeed))
}

func TestInvalidate(t *testing.T) {
	c, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, KeyResourceFeed, []feedItem{{ID: "1"}}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, KeyDiscussionFeed, []feedItem{{ID: "2"}}, time.Minute))

	c.Invalidate(ctx, KeyResourceFeed, KeyDiscussionFeed)

	assert.False(t, mr.Exists(KeyResourceFeed))
	assert.False(t, mr.Exists(KeyDiscussionFeed))
}

func TestAside_RedisDownFallsBackToFetch(t *testing.T) {
	c, mr := setupRedis(t)
	mr.Close()

	var dest []feedItem
	err := c.Aside(context.Background(), KeyResourceFeed, &dest, time.Minute, func() error {
		dest = []feedItem{{ID: "1"}}
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, dest, 1)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	found, err := c.GetJSON(ctx, "k", &[]feedItem{})
	assert.False(t, found)
	assert.NoError(t, err)
	assert.NoError(t, c.SetJSON(ctx, "k", 1, time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	c.Invalidate(ctx, "k")

	calls := 0
	require.NoError(t, c.Aside(ctx, "k", &[]feedItem{}, time.Minute, func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
	assert.Nil(t, New(nil))
}
