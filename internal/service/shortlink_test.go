package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/testdb"
)

func shortLinkFixtures(t *testing.T) (*ShortLinkService, *miniredis.Miniredis) {
	t.Helper()
	db := testdb.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewShortLinkService(db, rdb, zap.NewNop()), mr
}

func TestShortLinkGetOrCreateIdempotent(t *testing.T) {
	svc, _ := shortLinkFixtures(t)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "http://localhost/api/recipes/abc")
	require.NoError(t, err)
	require.Len(t, first.Token, 3)

	second, err := svc.GetOrCreate(ctx, "http://localhost/api/recipes/abc")
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)

	other, err := svc.GetOrCreate(ctx, "http://localhost/api/recipes/xyz")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, other.Token)
}

func TestShortLinkResolve(t *testing.T) {
	svc, mr := shortLinkFixtures(t)
	ctx := context.Background()

	link, err := svc.GetOrCreate(ctx, "http://localhost/api/recipes/abc")
	require.NoError(t, err)

	url, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/api/recipes/abc", url)

	// The first resolve populates the cache.
	cached, err := mr.Get("shortlink:" + link.Token)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/api/recipes/abc", cached)

	// Subsequent resolves are served from cache even if the row disappears.
	require.NoError(t, svc.db.Delete(&models.ShortLink{}, "token = ?", link.Token).Error)
	url, err = svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/api/recipes/abc", url)
}

func TestShortLinkResolveUnknown(t *testing.T) {
	svc, _ := shortLinkFixtures(t)

	_, err := svc.Resolve(context.Background(), "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShortLinkWithoutRedis(t *testing.T) {
	db := testdb.New(t)
	svc := NewShortLinkService(db, nil, zap.NewNop())
	ctx := context.Background()

	link, err := svc.GetOrCreate(ctx, "http://localhost/api/recipes/abc")
	require.NoError(t, err)

	url, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/api/recipes/abc", url)
}
