package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"circloth_server/models"
	"circloth_server/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.catalog.CreateItem(ctx, models.Item{Category: "tops"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	item, err := env.catalog.CreateItem(ctx, models.Item{OwnerID: "alice", Category: "tops", Size: "M", PhotoURLs: []string{"https://cdn/a.jpg"}})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.True(t, item.CreatedAt.Equal(t0))
	assert.True(t, item.UpdatedAt.Equal(t0))

	got, err := env.catalog.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/a.jpg"}, got.PhotoURLs)

	owned, err := env.catalog.ItemsOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID}, itemIDs(owned))
}

func TestCreateItem_TakenIDLeavesOriginal(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "x", "bob", nil)
	env.decide(t, "alice", "x", models.ActionLike)

	env.clock.Advance(time.Hour)
	_, err := env.catalog.CreateItem(ctx, models.Item{ID: "x", OwnerID: "carol", Category: "shoes", Size: "L"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := env.catalog.GetItem(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.OwnerID)
	assert.Equal(t, "tops", got.Category)
	assert.True(t, got.CreatedAt.Equal(t0))

	liked, err := env.matches.LikedItemsOf(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, itemIDs(liked))
}

func TestCreateItem_ImageRejected(t *testing.T) {
	env := newTestEnv(t, false)
	env.catalog.CheckImage = func(ctx context.Context, url string) error {
		if strings.Contains(url, "selfie") {
			return errors.New("face detected")
		}
		return nil
	}

	_, err := env.catalog.CreateItem(context.Background(), models.Item{
		OwnerID:   "alice",
		PhotoURLs: []string{"https://cdn/shirt.jpg", "https://cdn/selfie.jpg"},
	})
	assert.ErrorIs(t, err, ErrImageRejected)

	items, err := env.catalog.ItemsOf(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateItem_Merges(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.item(t, "a1", "alice", nil)

	env.clock.Advance(time.Hour)
	updated, err := env.catalog.UpdateItem(ctx, "a1", models.Item{ID: "other", OwnerID: "mallory", Color: "red"})
	require.NoError(t, err)
	assert.Equal(t, "a1", updated.ID)
	assert.Equal(t, "alice", updated.OwnerID)
	assert.Equal(t, "red", updated.Color)
	assert.Equal(t, "M", updated.Size)
	assert.True(t, updated.CreatedAt.Equal(t0))
	assert.True(t, updated.UpdatedAt.Equal(t0.Add(time.Hour)))

	_, err = env.catalog.UpdateItem(ctx, "missing", models.Item{Color: "red"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteItem_PurgesActionsAndIndex(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "a1", "alice", nil)
	env.item(t, "b1", "bob", nil)
	env.decide(t, "alice", "b1", models.ActionLike)
	env.decide(t, "bob", "a1", models.ActionLike)

	require.NoError(t, env.catalog.DeleteItem(ctx, "b1"))

	_, err := env.catalog.GetItem(ctx, "b1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	actions, err := env.matches.ActionsFor(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, actions)

	liked, err := env.index.LikedBy(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, liked)

	matches, err := env.matches.MatchesFor(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, matches)

	assert.ErrorIs(t, env.catalog.DeleteItem(ctx, "b1"), store.ErrNotFound)
}

func TestDeleteItemsOf(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "a1", "alice", nil)
	env.item(t, "a2", "alice", nil)
	env.item(t, "b1", "bob", nil)
	env.decide(t, "bob", "a1", models.ActionLike)
	env.decide(t, "alice", "b1", models.ActionLike)

	n, err := env.catalog.DeleteItemsOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := env.catalog.ItemsOf(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)

	liked, err := env.index.LikedBy(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, liked)

	// alice's own like survives, only her listings are gone
	liked, err = env.index.LikedBy(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, liked)

	n, err = env.catalog.DeleteItemsOf(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClearLikes_DissolvesMatchKeepsPasses(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.user(t, "carol", "Carol")
	env.item(t, "a1", "alice", nil)
	env.item(t, "b1", "bob", nil)
	env.decide(t, "alice", "b1", models.ActionLike)
	env.decide(t, "bob", "a1", models.ActionLike)
	env.decide(t, "carol", "b1", models.ActionPass)

	matches, err := env.matches.MatchesFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	n, err := env.catalog.ClearLikes(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	matches, err = env.matches.MatchesFor(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, matches)

	actions, err := env.matches.ActionsFor(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionPass, actions[0].Kind)

	_, err = env.catalog.GetItem(ctx, "b1")
	require.NoError(t, err)

	_, err = env.catalog.ClearLikes(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
