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

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	SetClient(c)
	t.Cleanup(func() {
		SetClient(nil)
		_ = c.Close()
	})
	return mr
}

func TestNewClient_URL(t *testing.T) {
	c, err := NewClient("redis://localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()

	_, err = NewClient("redis://[bad")
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	type item struct{ Name string }
	require.NoError(t, SetJSON(ctx, "k", []item{{"Dungeon"}}, time.Minute))
	assert.True(t, mr.Exists("k"))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	var got []item
	found, err := GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []item{{"Dungeon"}}, got)

	found, err = GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAside(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *[]string) func() error {
		return func() error {
			calls++
			*dest = []string{"a", "b"}
			return nil
		}
	}

	var first []string
	require.NoError(t, Aside(ctx, FamilyTags, ActiveTagsKey, &first, TaxonomyTTL, fetch(&first)))
	var second []string
	require.NoError(t, Aside(ctx, FamilyTags, ActiveTagsKey, &second, TaxonomyTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"a", "b"}, second)

	InvalidateTags(ctx)
	var third []string
	require.NoError(t, Aside(ctx, FamilyTags, ActiveTagsKey, &third, TaxonomyTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("boom")

	var dest []string
	err := Aside(context.Background(), FamilyCategories, ActiveCategoriesKey, &dest, TaxonomyTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(ActiveCategoriesKey))
}

func TestAside_RedisDownFallsThrough(t *testing.T) {
	mr := setupMiniredis(t)
	mr.Close()

	var dest []string
	err := Aside(context.Background(), FamilyCategories, ActiveCategoriesKey, &dest, TaxonomyTTL, func() error {
		dest = []string{"x"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, dest)
}

func TestNoClientIsNoop(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	found, err := GetJSON(ctx, "k", new(string))
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetJSON(ctx, "k", "v", time.Minute))
	assert.NotPanics(t, func() { InvalidateCategories(ctx) })
	assert.Nil(t, GetClient())
}

func TestInitRedis_Unreachable(t *testing.T) {
	InitRedis("127.0.0.1:1")
	assert.Nil(t, GetClient())

	var _ redis.Hook = metricsHook{}
}
