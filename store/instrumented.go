package store

import (
	"context"
	"errors"
	"time"

	"circloth_server/metrics"
	"circloth_server/models"
)

// Instrumented records Prometheus metrics around every call of the wrapped Store
type Instrumented struct {
	Store
}

// Instrument wraps s with metrics
func Instrument(s Store) *Instrumented {
	return &Instrumented{Store: s}
}

// track is deferred with a pointer to the named error result
func track(op string, start time.Time, errp *error) {
	outcome := "ok"
	switch err := *errp; {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.StoreOperations.WithLabelValues(op, outcome).Inc()
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (i *Instrumented) GetItem(ctx context.Context, id string) (_ *models.Item, err error) {
	defer track("get_item", time.Now(), &err)
	return i.Store.GetItem(ctx, id)
}

func (i *Instrumented) ListItems(ctx context.Context, filter models.ItemFilter) (_ []models.Item, err error) {
	defer track("list_items", time.Now(), &err)
	return i.Store.ListItems(ctx, filter)
}

func (i *Instrumented) PutItem(ctx context.Context, item models.Item) (err error) {
	defer track("put_item", time.Now(), &err)
	return i.Store.PutItem(ctx, item)
}

func (i *Instrumented) InsertItem(ctx context.Context, item models.Item) (err error) {
	defer track("insert_item", time.Now(), &err)
	return i.Store.InsertItem(ctx, item)
}

func (i *Instrumented) DeleteItem(ctx context.Context, id string) (err error) {
	defer track("delete_item", time.Now(), &err)
	return i.Store.DeleteItem(ctx, id)
}

func (i *Instrumented) DeleteItemsOwnedBy(ctx context.Context, ownerID string) (_ int, err error) {
	defer track("delete_items_owned_by", time.Now(), &err)
	return i.Store.DeleteItemsOwnedBy(ctx, ownerID)
}

func (i *Instrumented) GetUser(ctx context.Context, id string) (_ *models.User, err error) {
	defer track("get_user", time.Now(), &err)
	return i.Store.GetUser(ctx, id)
}

func (i *Instrumented) PutUser(ctx context.Context, id string, patch models.UserPatch, now time.Time) (_ *models.User, err error) {
	defer track("put_user", time.Now(), &err)
	return i.Store.PutUser(ctx, id, patch, now)
}

func (i *Instrumented) DeleteUser(ctx context.Context, id string) (err error) {
	defer track("delete_user", time.Now(), &err)
	return i.Store.DeleteUser(ctx, id)
}

func (i *Instrumented) RecordAction(ctx context.Context, a models.Action) (_ bool, err error) {
	defer track("record_action", time.Now(), &err)
	return i.Store.RecordAction(ctx, a)
}

func (i *Instrumented) ActionsFor(ctx context.Context, userID string) (_ []models.Action, err error) {
	defer track("actions_for", time.Now(), &err)
	return i.Store.ActionsFor(ctx, userID)
}

func (i *Instrumented) AllLikeActions(ctx context.Context) (_ []models.Action, err error) {
	defer track("all_like_actions", time.Now(), &err)
	return i.Store.AllLikeActions(ctx)
}

func (i *Instrumented) DeleteActions(ctx context.Context, scope models.ActionScope) (_ int, err error) {
	defer track("delete_actions", time.Now(), &err)
	return i.Store.DeleteActions(ctx, scope)
}

func (i *Instrumented) DeleteMatchTraces(ctx context.Context, scope models.ActionScope) (_ int, err error) {
	defer track("delete_match_traces", time.Now(), &err)
	return i.Store.DeleteMatchTraces(ctx, scope)
}

func (i *Instrumented) EnsureChat(ctx context.Context, chat models.Chat) (err error) {
	defer track("ensure_chat", time.Now(), &err)
	return i.Store.EnsureChat(ctx, chat)
}

func (i *Instrumented) SaveMessage(ctx context.Context, msg models.Message) (err error) {
	defer track("save_message", time.Now(), &err)
	return i.Store.SaveMessage(ctx, msg)
}

func (i *Instrumented) ListMessages(ctx context.Context, conversationID string, limit int) (_ []models.Message, err error) {
	defer track("list_messages", time.Now(), &err)
	return i.Store.ListMessages(ctx, conversationID, limit)
}
