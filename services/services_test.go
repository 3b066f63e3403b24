package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"circloth_server/likeindex"
	"circloth_server/models"
	"circloth_server/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingNotifier struct {
	mu       sync.Mutex
	matches  map[string][]models.MatchNotice
	messages []models.Message
}

func (n *recordingNotifier) NotifyMatch(userID string, match models.MatchNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.matches == nil {
		n.matches = map[string][]models.MatchNotice{}
	}
	n.matches[userID] = append(n.matches[userID], match)
}

func (n *recordingNotifier) NotifyMessage(msg models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

type testEnv struct {
	store    *store.SQLStore
	index    *likeindex.Index
	clock    *fakeClock
	notifier *recordingNotifier
	matches  *MatchService
	actions  *ActionService
	chats    *ChatService
	catalog  *CatalogService
	users    *UserService
}

func newTestEnv(t *testing.T, withIndex bool) *testEnv {
	t.Helper()

	s, err := store.OpenSQL("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })

	env := &testEnv{
		store:    s,
		clock:    &fakeClock{t: t0},
		notifier: &recordingNotifier{},
	}

	var idx LikeIndex
	if withIndex {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		env.index = likeindex.New(rdb)
		idx = env.index
	}

	clock := Clock(env.clock.Now)
	env.chats = &ChatService{Store: s, Notifier: env.notifier, Clock: clock}
	env.matches = &MatchService{Store: s, Index: idx, PassExpiry: time.Minute, Clock: clock}
	env.actions = &ActionService{Store: s, Index: idx, Chats: env.chats, Notifier: env.notifier, Clock: clock}
	env.catalog = &CatalogService{Store: s, Index: idx, Clock: clock}
	env.users = &UserService{Store: s, Index: idx, Clock: clock}
	return env
}

func (e *testEnv) user(t *testing.T, id, name string) *models.User {
	t.Helper()
	u, err := e.users.UpdateUser(context.Background(), id, models.UserPatch{Name: &name})
	require.NoError(t, err)
	return u
}

func (e *testEnv) item(t *testing.T, id, owner string, loc *models.Location) *models.Item {
	t.Helper()
	it, err := e.catalog.CreateItem(context.Background(), models.Item{ID: id, OwnerID: owner, Category: "tops", Size: "M", Location: loc})
	require.NoError(t, err)
	return it
}

func (e *testEnv) decide(t *testing.T, user, item string, kind models.ActionKind) *Decision {
	t.Helper()
	e.clock.Advance(time.Second)
	d, err := e.actions.RecordDecision(context.Background(), user, item, string(kind))
	require.NoError(t, err)
	return d
}

func itemIDs(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
