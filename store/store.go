// Package store persists items, users, actions and chats. Two backends
// implement Store: DynamoStore for AWS deployments and SQLStore (gorm) for
// Postgres or SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circloth_server/models"
)

// ErrNotFound is returned when a referenced user, item or chat does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a create targets an id that is already taken
var ErrConflict = errors.New("already exists")

// ErrEmptyScope is returned when a delete would match every action
var ErrEmptyScope = errors.New("action scope must name a user or an item")

// ItemStore is the item catalog
type ItemStore interface {
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	PutItem(ctx context.Context, item models.Item) error
	// InsertItem stores a new item and fails with ErrConflict when the id exists
	InsertItem(ctx context.Context, item models.Item) error
	// DeleteItem removes the item and every action referencing it as one batch
	DeleteItem(ctx context.Context, id string) error
	// DeleteItemsOwnedBy removes all of the owner's items and every action
	// on them as one batch, returning how many items went
	DeleteItemsOwnedBy(ctx context.Context, ownerID string) (int, error)
}

// UserStore holds user profiles
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// PutUser merges patch into the stored profile, creating it if needed,
	// and stamps LastActive with now.
	PutUser(ctx context.Context, id string, patch models.UserPatch, now time.Time) (*models.User, error)
	// DeleteUser removes the user, their items, all actions by them or on
	// their items, and their chats as one batch.
	DeleteUser(ctx context.Context, id string) error
}

// ActionStore keeps one authoritative action per (user, item)
type ActionStore interface {
	// RecordAction writes a unless a newer action for the same pair is
	// already stored. Equal timestamps overwrite. applied reports whether a
	// became authoritative.
	RecordAction(ctx context.Context, a models.Action) (applied bool, err error)
	// ActionsFor lists the user's actions in storage order
	ActionsFor(ctx context.Context, userID string) ([]models.Action, error)
	// AllLikeActions lists every stored like, system wide
	AllLikeActions(ctx context.Context) ([]models.Action, error)
	// DeleteActions removes the actions selected by scope and returns how many
	DeleteActions(ctx context.Context, scope models.ActionScope) (int, error)
	// DeleteMatchTraces removes only the likes selected by scope, dissolving
	// every match derived from them
	DeleteMatchTraces(ctx context.Context, scope models.ActionScope) (int, error)
}

// ChatStore holds conversations and their messages
type ChatStore interface {
	// EnsureChat creates the chat unless one with the same id exists
	EnsureChat(ctx context.Context, chat models.Chat) error
	SaveMessage(ctx context.Context, msg models.Message) error
	// ListMessages returns the latest limit messages, oldest first
	ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

// Store is the full persistence surface used by the services
type Store interface {
	ItemStore
	UserStore
	ActionStore
	ChatStore
	Close() error
}

// Tables names the tables (or DynamoDB tables) a store writes to
type Tables struct {
	Items    string
	Users    string
	Actions  string
	Chats    string
	Messages string
}

// DefaultTables returns the stock table names
func DefaultTables() Tables {
	return Tables{
		Items:    models.ItemsTable,
		Users:    models.UsersTable,
		Actions:  models.ActionsTable,
		Chats:    models.ChatsTable,
		Messages: models.MessagesTable,
	}
}

// messageSortKey orders messages by time within a conversation
func messageSortKey(msg models.Message) string {
	return fmt.Sprintf("%020d#%s", msg.Timestamp.UnixMicro(), msg.MessageID)
}
