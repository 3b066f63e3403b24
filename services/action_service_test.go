package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"circloth_server/metrics"
	"circloth_server/models"
	"circloth_server/store"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDecision_RejectsUnknownKindFirst(t *testing.T) {
	// no store: the kind must be checked before any lookup
	as := &ActionService{}

	_, err := as.RecordDecision(context.Background(), "alice", "b1", "superlike")
	assert.ErrorIs(t, err, ErrInvalidActionKind)

	_, err = as.RecordDecision(context.Background(), "", "b1", "like")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordDecision_NotFound(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "alice", "Alice")

	_, err := env.actions.RecordDecision(ctx, "ghost", "b1", "like")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = env.actions.RecordDecision(ctx, "alice", "missing", "like")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordDecision_Match(t *testing.T) {
	for _, indexed := range []bool{false, true} {
		name := "scan"
		if indexed {
			name = "indexed"
		}
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, indexed)
			ctx := context.Background()
			env.user(t, "alice", "Alice")
			env.user(t, "bob", "Bob")
			env.item(t, "a1", "alice", nil)
			env.item(t, "b1", "bob", nil)

			d := env.decide(t, "alice", "b1", models.ActionLike)
			assert.True(t, d.Applied)
			assert.Nil(t, d.Match)

			d = env.decide(t, "bob", "a1", models.ActionLike)
			require.NotNil(t, d.Match)
			assert.Equal(t, "It's a match!", d.Match.Message)
			assert.Equal(t, "alice", d.Match.OtherUserID)
			assert.Equal(t, "a1", d.Match.ItemID)
			assert.Equal(t, "alice_bob", d.Match.ChatID)

			require.Len(t, env.notifier.matches["bob"], 1)
			require.Len(t, env.notifier.matches["alice"], 1)
			assert.Equal(t, "bob", env.notifier.matches["alice"][0].OtherUserID)

			msgs, err := env.chats.ListMessages(ctx, "alice", "bob", 0)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			assert.Equal(t, "You have matched with Alice! Say Hi!", msgs[0].Content)
			assert.Empty(t, msgs[0].Sender)
		})
	}
}

func TestRecordDecision_NoMatchOnPassOrOwnItem(t *testing.T) {
	env := newTestEnv(t, false)
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "a1", "alice", nil)
	env.item(t, "b1", "bob", nil)

	env.decide(t, "bob", "a1", models.ActionLike)
	d := env.decide(t, "alice", "b1", models.ActionPass)
	assert.Nil(t, d.Match)

	d = env.decide(t, "alice", "a1", models.ActionLike)
	assert.Nil(t, d.Match)
	assert.Empty(t, env.notifier.matches)
}

func TestRecordDecision_StaleIgnored(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "b1", "bob", nil)

	env.decide(t, "alice", "b1", models.ActionLike)

	// a decision stamped before the stored one loses
	env.clock.Set(t0.Add(-time.Hour))
	d, err := env.actions.RecordDecision(ctx, "alice", "b1", "pass")
	require.NoError(t, err)
	assert.False(t, d.Applied)

	actions, err := env.matches.ActionsFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionLike, actions[0].Kind)

	liked, err := env.index.LikedBy(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, liked)
}

func TestIsMutualLike(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "a1", "alice", nil)

	ok, err := env.actions.IsMutualLike(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	env.decide(t, "bob", "a1", models.ActionLike)
	ok, err = env.actions.IsMutualLike(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetDecisions(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "b1", "bob", nil)
	env.item(t, "b2", "bob", nil)
	env.decide(t, "alice", "b1", models.ActionLike)
	env.decide(t, "alice", "b2", models.ActionPass)

	eligible, err := env.matches.EligibleItems(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, eligible)

	n, err := env.actions.ResetDecisions(ctx, "alice", "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	liked, err := env.index.LikedBy(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, liked)
	eligible, err = env.matches.EligibleItems(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, itemIDs(eligible))

	n, err = env.actions.ResetDecisions(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	eligible, err = env.matches.EligibleItems(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b1", "b2"}, itemIDs(eligible))

	_, err = env.actions.ResetDecisions(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type failingApplyIndex struct {
	LikeIndex
}

func (failingApplyIndex) Apply(context.Context, models.Action) (bool, error) {
	return false, errors.New("redis unavailable")
}

func indexFailures(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.IndexFailures.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordDecision_IndexFailureKeepsStoredDecision(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.user(t, "alice", "Alice")
	env.user(t, "bob", "Bob")
	env.item(t, "a1", "alice", nil)
	env.item(t, "b1", "bob", nil)
	env.decide(t, "bob", "a1", models.ActionLike)

	env.actions.Index = failingApplyIndex{env.index}
	before := indexFailures(t)

	d := env.decide(t, "alice", "b1", models.ActionLike)
	assert.True(t, d.Applied)
	require.NotNil(t, d.Match)
	assert.Equal(t, before+1, indexFailures(t))

	actions, err := env.matches.ActionsFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionLike, actions[0].Kind)

	// the index missed the like until it is rebuilt from the store
	liked, err := env.index.LikedBy(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, liked)

	likes, err := env.store.AllLikeActions(ctx)
	require.NoError(t, err)
	require.NoError(t, env.index.Rebuild(ctx, likes))
	liked, err = env.index.LikedBy(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, liked)
}
