package services

import (
	"context"
	"testing"
	"time"

	"circloth_server/models"
	"circloth_server/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateUser_MergesAndStamps(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	name := "Alice"
	u, err := env.users.UpdateUser(ctx, "alice", models.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.True(t, u.CreatedAt.Equal(t0))

	env.clock.Advance(time.Minute)
	email := "alice@example.com"
	u, err = env.users.UpdateUser(ctx, "alice", models.UserPatch{
		Email:    &email,
		Location: &models.Location{Lat: 1, Lng: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, email, u.Email)
	assert.True(t, u.CreatedAt.Equal(t0))
	assert.True(t, u.LastActive.Equal(t0.Add(time.Minute)))
	require.NotNil(t, u.Location)
	require.NotNil(t, u.Location.UpdatedAt)
	assert.True(t, u.Location.UpdatedAt.Equal(t0.Add(time.Minute)))

	_, err = env.users.UpdateUser(ctx, "", models.UserPatch{Name: &name})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSizePreferences(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "alice", "Alice")

	prefs, err := env.users.SizePreferences(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, prefs)
	assert.Empty(t, prefs)

	_, err = env.users.UpdateSizePreferences(ctx, "alice", map[string][]string{"hats": {"L"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	want := map[string][]string{"tops": {"S", "M"}, "shoes": {"42"}}
	got, err := env.users.UpdateSizePreferences(ctx, "alice", want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	prefs, err = env.users.SizePreferences(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, want, prefs)

	_, err = env.users.SizePreferences(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUser_Cascades(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "a1", "alice", nil)
	env.item(t, "b1", "bob", nil)
	env.decide(t, "alice", "b1", models.ActionLike)
	env.decide(t, "bob", "a1", models.ActionLike)

	require.NoError(t, env.users.DeleteUser(ctx, "alice"))

	_, err := env.users.GetUser(ctx, "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.catalog.GetItem(ctx, "a1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	actions, err := env.matches.ActionsFor(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, actions)

	likers, err := env.index.LikersOf(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, likers)

	msgs, err := env.chats.ListMessages(ctx, "alice", "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, env.users.DeleteUser(ctx, "alice"), store.ErrNotFound)
}
