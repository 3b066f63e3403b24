package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"circloth_server/models"
	"circloth_server/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCandidate_UnknownUser(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.matches.NextCandidate(context.Background(), "ghost", nil, false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNextCandidate_NothingEligible(t *testing.T) {
	env := newTestEnv(t, false)
	env.user(t, "alice", "Alice")
	env.item(t, "a1", "alice", nil)

	item, err := env.matches.NextCandidate(context.Background(), "alice", nil, false)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestNextCandidate_NearestFirst(t *testing.T) {
	env := newTestEnv(t, false)
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "far", "bob", &models.Location{Lat: 48.8566, Lng: 2.3522})
	env.item(t, "near", "bob", &models.Location{Lat: 51.5072, Lng: -0.1276})
	env.item(t, "nowhere", "bob", nil)

	london := &models.Location{Lat: 51.5, Lng: -0.12}
	item, err := env.matches.NextCandidate(context.Background(), "alice", london, false)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "near", item.ID)

	env.decide(t, "alice", "near", models.ActionLike)
	item, err = env.matches.NextCandidate(context.Background(), "alice", london, false)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "far", item.ID)
}

func TestNextCandidate_FallsBackToStoredLocation(t *testing.T) {
	env := newTestEnv(t, false)
	env.user(t, "bob", "Bob")
	_, err := env.users.UpdateUser(context.Background(), "alice", models.UserPatch{
		Location: &models.Location{Lat: 48.85, Lng: 2.35},
	})
	require.NoError(t, err)
	env.item(t, "london", "bob", &models.Location{Lat: 51.5072, Lng: -0.1276})
	env.item(t, "paris", "bob", &models.Location{Lat: 48.8566, Lng: 2.3522})

	item, err := env.matches.NextCandidate(context.Background(), "alice", nil, false)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "paris", item.ID)
}

func TestNextCandidate_SizeFilter(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	_, err := env.catalog.CreateItem(ctx, models.Item{ID: "tee", OwnerID: "bob", Category: "tops", Size: "S"})
	require.NoError(t, err)
	_, err = env.catalog.CreateItem(ctx, models.Item{ID: "jeans", OwnerID: "bob", Category: "pants_shorts", Size: "32"})
	require.NoError(t, err)

	// no preferences and filtering requested: nothing qualifies
	item, err := env.matches.NextCandidate(ctx, "alice", nil, true)
	require.NoError(t, err)
	assert.Nil(t, item)

	_, err = env.users.UpdateSizePreferences(ctx, "alice", map[string][]string{"pants_shorts": {"30", "32"}})
	require.NoError(t, err)

	item, err = env.matches.NextCandidate(ctx, "alice", nil, true)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "jeans", item.ID)
}

func TestEligibleItems_PassExpires(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "b1", "bob", nil)
	env.item(t, "b2", "bob", nil)
	env.item(t, "a1", "alice", nil)

	env.decide(t, "alice", "b1", models.ActionPass)
	env.decide(t, "alice", "b2", models.ActionLike)

	items, err := env.matches.EligibleItems(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)

	// the pass is 59s old
	env.clock.Advance(58 * time.Second)
	items, err = env.matches.EligibleItems(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)

	env.clock.Advance(time.Second)
	items, err = env.matches.EligibleItems(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, itemIDs(items))
}

func TestActionsFor_LatestNewestFirst(t *testing.T) {
	env := newTestEnv(t, false)
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "b1", "bob", nil)
	env.item(t, "b2", "bob", nil)

	env.decide(t, "alice", "b1", models.ActionLike)
	env.decide(t, "alice", "b2", models.ActionLike)
	env.decide(t, "alice", "b1", models.ActionPass)

	actions, err := env.matches.ActionsFor(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "b1", actions[0].ItemID)
	assert.Equal(t, models.ActionPass, actions[0].Kind)
	assert.Equal(t, "b2", actions[1].ItemID)
}

func TestMatchesFor_EnrichesProfiles(t *testing.T) {
	for _, indexed := range []bool{false, true} {
		t.Run(fmt.Sprintf("indexed=%v", indexed), func(t *testing.T) {
			env := newTestEnv(t, indexed)
			ctx := context.Background()
			env.user(t, "alice", "Alice")
			env.user(t, "bob", "Bob")
			env.item(t, "a1", "alice", nil)
			env.item(t, "a2", "alice", nil)
			env.item(t, "b1", "bob", nil)

			env.decide(t, "alice", "b1", models.ActionLike)
			env.decide(t, "bob", "a2", models.ActionLike)
			env.decide(t, "bob", "a1", models.ActionLike)

			matches, err := env.matches.MatchesFor(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, matches, 1)
			m := matches[0]
			assert.Equal(t, "alice:bob:b1", m.MatchID)
			assert.Equal(t, "bob", m.OtherUser.ID)
			assert.Equal(t, "Bob", m.OtherUser.Name)
			assert.Equal(t, "b1", m.TheirItem.ID)
			assert.Equal(t, []string{"a1", "a2"}, itemIDs(m.YourItems))

			// symmetric from bob's side
			matches, err = env.matches.MatchesFor(ctx, "bob")
			require.NoError(t, err)
			require.Len(t, matches, 2)
			assert.Equal(t, "a1", matches[0].TheirItem.ID)
			assert.Equal(t, "a2", matches[1].TheirItem.ID)
			assert.Equal(t, []string{"b1"}, itemIDs(matches[0].YourItems))

			// a pass on b1 dissolves the match
			env.decide(t, "alice", "b1", models.ActionPass)
			matches, err = env.matches.MatchesFor(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, matches)
		})
	}
}

func TestEnrichMatchesWithProfiles_MissingProfile(t *testing.T) {
	env := newTestEnv(t, false)
	groups := []models.MatchGroup{{OtherUserID: "gone", TheirItem: models.Item{ID: "g1", OwnerID: "gone"}}}

	out, err := env.matches.EnrichMatchesWithProfiles(context.Background(), "alice", groups)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.UserSummary{ID: "gone"}, out[0].OtherUser)
}

func TestLikedItemsOf(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.user(t, "carol", "Carol")
	env.item(t, "b1", "bob", nil)
	env.item(t, "b2", "bob", nil)
	env.item(t, "b3", "bob", nil)

	env.decide(t, "alice", "b1", models.ActionLike)
	env.decide(t, "alice", "b2", models.ActionLike)
	env.decide(t, "alice", "b2", models.ActionPass)

	items, err := env.matches.LikedItemsOf(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, itemIDs(items))

	items, err = env.matches.LikedItemsOf(ctx, "bob", "carol")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = env.matches.LikedItemsOf(ctx, "ghost", "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.matches.LikedItemsOf(ctx, "bob", "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReadsRejectUnknownUser(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "alice", "Alice")

	_, err := env.matches.MatchesFor(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.matches.ActionsFor(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// a known user with nothing yet is an empty result, not an error
	matches, err := env.matches.MatchesFor(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, matches)
	actions, err := env.matches.ActionsFor(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, actions)
}

// The index-backed discovery must agree with the population scan after any
// sequence of decisions and deletions.
func TestDiscover_IndexMatchesScan(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	users := []string{"u0", "u1", "u2", "u3", "u4"}
	var items []string
	for _, u := range users {
		env.user(t, u, "name-"+u)
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("%s-item%d", u, i)
			env.item(t, id, u, nil)
			items = append(items, id)
		}
	}

	live := func() []string {
		all, err := env.store.ListItems(ctx, models.ItemFilter{})
		require.NoError(t, err)
		return itemIDs(all)
	}

	compare := func(step int) {
		for _, u := range users {
			scan, err := env.matches.discoverScan(ctx, u)
			require.NoError(t, err)
			indexed, err := env.matches.discoverIndexed(ctx, u)
			require.NoError(t, err)
			require.Equal(t, scan, indexed, "step %d user %s", step, u)
		}
	}

	for step := 0; step < 200; step++ {
		ids := live()
		if len(ids) == 0 {
			break
		}
		switch r := rng.Intn(20); {
		case r == 0:
			require.NoError(t, env.catalog.DeleteItem(ctx, ids[rng.Intn(len(ids))]))
		default:
			user := users[rng.Intn(len(users))]
			kind := models.ActionLike
			if rng.Intn(3) == 0 {
				kind = models.ActionPass
			}
			env.decide(t, user, ids[rng.Intn(len(ids))], kind)
		}
		if step%10 == 0 {
			compare(step)
		}
	}
	compare(200)

	// deleting a user drops them from both views
	require.NoError(t, env.users.DeleteUser(ctx, "u0"))
	compare(201)
}
