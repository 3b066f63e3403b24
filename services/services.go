package services

import (
	"context"
	"errors"
	"time"

	"circloth_server/models"
)

var (
	// ErrInvalidActionKind rejects actions other than like or pass
	ErrInvalidActionKind = errors.New("action must be 'like' or 'pass'")
	// ErrImageRejected is returned when a photo fails the image checks
	ErrImageRejected = errors.New("image rejected")
	// ErrInvalidInput covers requests missing a required value
	ErrInvalidInput = errors.New("invalid input")
)

// LikeIndex is the incremental like index consulted by match discovery
type LikeIndex interface {
	Apply(ctx context.Context, a models.Action) (bool, error)
	LikedBy(ctx context.Context, userID string) ([]string, error)
	LikersOfMany(ctx context.Context, itemIDs []string) (map[string][]string, error)
	RemoveItem(ctx context.Context, itemID string) error
	RemoveLike(ctx context.Context, userID, itemID string) error
	RemoveUser(ctx context.Context, userID string, ownedItemIDs []string) error
}

// Notifier pushes realtime events to connected clients
type Notifier interface {
	NotifyMatch(userID string, match models.MatchNotice)
	NotifyMessage(msg models.Message)
}

// NopNotifier drops every event
type NopNotifier struct{}

func (NopNotifier) NotifyMatch(string, models.MatchNotice) {}
func (NopNotifier) NotifyMessage(models.Message)           {}

// Clock returns the current time; tests replace it
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
