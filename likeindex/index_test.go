package likeindex

import (
	"context"
	"testing"
	"time"

	"circloth_server/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestIndex(t *testing.T) (*Index, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb), mr
}

func record(t *testing.T, x *Index, user, item string, kind models.ActionKind, at time.Time) bool {
	t.Helper()
	ok, err := x.Apply(context.Background(), models.Action{UserID: user, ItemID: item, Kind: kind, Timestamp: at})
	require.NoError(t, err)
	return ok
}

func TestApplyTracksLatestDecision(t *testing.T) {
	ctx := context.Background()
	x, _ := newTestIndex(t)

	assert.True(t, record(t, x, "u1", "i1", models.ActionLike, t0))
	liked, err := x.LikedBy(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, liked)
	likers, err := x.LikersOf(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, likers)

	assert.True(t, record(t, x, "u1", "i1", models.ActionPass, t0.Add(time.Second)))
	liked, err = x.LikedBy(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, liked)

	assert.False(t, record(t, x, "u1", "i1", models.ActionLike, t0), "stale like is ignored")
	likers, err = x.LikersOf(ctx, "i1")
	require.NoError(t, err)
	assert.Empty(t, likers)

	assert.True(t, record(t, x, "u1", "i1", models.ActionLike, t0.Add(time.Second)), "equal timestamp overwrites")
	liked, err = x.LikedBy(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, liked)
}

func TestRemoveItemAndUser(t *testing.T) {
	ctx := context.Background()
	x, _ := newTestIndex(t)

	record(t, x, "u1", "b1", models.ActionLike, t0)
	record(t, x, "u2", "a1", models.ActionLike, t0)
	record(t, x, "u3", "a1", models.ActionLike, t0)
	record(t, x, "u3", "b1", models.ActionLike, t0)

	require.NoError(t, x.RemoveItem(ctx, "a1"))
	likers, err := x.LikersOf(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, likers)
	liked, err := x.LikedBy(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, liked)

	require.NoError(t, x.RemoveUser(ctx, "u3", nil))
	likers, err = x.LikersOf(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, likers)

	many, err := x.LikersOfMany(ctx, []string{"b1", "zz"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, many["b1"])
	assert.Empty(t, many["zz"])
}

func TestRebuildReplacesContents(t *testing.T) {
	ctx := context.Background()
	x, mr := newTestIndex(t)

	record(t, x, "old", "gone", models.ActionLike, t0)
	require.NoError(t, x.Rebuild(ctx, []models.Action{
		{UserID: "u1", ItemID: "i1", Kind: models.ActionLike, Timestamp: t0},
	}))

	assert.False(t, mr.Exists(likesKey("old")))
	assert.False(t, mr.Exists(likersKey("gone")))
	liked, err := x.LikedBy(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, liked)

	// timestamps survive the rebuild, so older actions stay ignored
	assert.False(t, record(t, x, "u1", "i1", models.ActionPass, t0.Add(-time.Second)))
}

func TestApplyPropagatesRedisErrors(t *testing.T) {
	x, mr := newTestIndex(t)
	mr.Close()

	_, err := x.Apply(context.Background(), models.Action{UserID: "u1", ItemID: "i1", Kind: models.ActionLike, Timestamp: t0})
	assert.Error(t, err)
}

func TestRemoveLike(t *testing.T) {
	ctx := context.Background()
	x, _ := newTestIndex(t)

	record(t, x, "u1", "i1", models.ActionLike, t0)
	record(t, x, "u1", "i2", models.ActionLike, t0)

	require.NoError(t, x.RemoveLike(ctx, "u1", "i1"))

	liked, err := x.LikedBy(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"i2"}, liked)
	likers, err := x.LikersOf(ctx, "i1")
	require.NoError(t, err)
	assert.Empty(t, likers)

	// the timestamp is forgotten too, so an older decision applies again
	assert.True(t, record(t, x, "u1", "i1", models.ActionPass, t0.Add(-time.Hour)))
}
