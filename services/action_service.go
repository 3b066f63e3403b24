package services

import (
	"context"
	"errors"
	"fmt"

	"circloth_server/logger"
	"circloth_server/matching"
	"circloth_server/metrics"
	"circloth_server/models"
	"circloth_server/store"

	"go.uber.org/zap"
)

// ActionService records like/pass decisions
type ActionService struct {
	Store    store.Store
	Index    LikeIndex // optional
	Chats    *ChatService
	Notifier Notifier
	Clock    Clock
}

// Decision is the outcome of a recorded action
type Decision struct {
	Action  models.Action       `json:"action"`
	Applied bool                `json:"applied"`
	Match   *models.MatchNotice `json:"match,omitempty"`
}

// RecordDecision validates and stores userID's decision on itemID with a
// server-assigned timestamp. A like that completes a match opens a chat and
// notifies both users.
func (as *ActionService) RecordDecision(ctx context.Context, userID, itemID, kind string) (*Decision, error) {
	actionKind, ok := models.ParseActionKind(kind)
	if !ok {
		return nil, ErrInvalidActionKind
	}
	if userID == "" || itemID == "" {
		return nil, fmt.Errorf("%w: user_id and item_id are required", ErrInvalidInput)
	}

	if _, err := as.Store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	item, err := as.Store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	action := models.Action{UserID: userID, ItemID: itemID, Kind: actionKind, Timestamp: as.Clock.now()}
	applied, err := as.Store.RecordAction(ctx, action)
	if err != nil {
		logger.Error("failed to record action", zap.String("userId", userID), zap.String("itemId", itemID), zap.Error(err))
		return nil, err
	}
	metrics.Decisions.WithLabelValues(string(actionKind)).Inc()

	decision := &Decision{Action: action, Applied: applied}
	if !applied {
		logger.Info("stale action ignored", zap.String("userId", userID), zap.String("itemId", itemID))
		return decision, nil
	}

	// the store is authoritative: once the decision is stored the request
	// succeeds, and a missed index update is repaired by the next rebuild
	if as.Index != nil {
		if _, err := as.Index.Apply(ctx, action); err != nil {
			metrics.IndexFailures.Inc()
			logger.Error("failed to index action", zap.String("userId", userID), zap.String("itemId", itemID), zap.Error(err))
		}
	}

	if actionKind != models.ActionLike || item.OwnerID == "" || item.OwnerID == userID {
		return decision, nil
	}

	matched, err := as.IsMutualLike(ctx, userID, item.OwnerID)
	if err != nil {
		return nil, err
	}
	if matched {
		notice, err := as.createMatch(ctx, userID, item)
		if err != nil {
			return nil, err
		}
		decision.Match = notice
	}
	return decision, nil
}

// ResetDecisions forgets userID's likes and passes, on one item when itemID
// is set and on everything otherwise. Forgotten items become eligible again.
func (as *ActionService) ResetDecisions(ctx context.Context, userID, itemID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	n, err := as.Store.DeleteActions(ctx, models.ActionScope{UserID: userID, ItemID: itemID})
	if err != nil {
		logger.Error("failed to reset decisions", zap.String("userId", userID), zap.String("itemId", itemID), zap.Error(err))
		return 0, err
	}
	if as.Index != nil {
		if itemID != "" {
			err = as.Index.RemoveLike(ctx, userID, itemID)
		} else {
			err = as.Index.RemoveUser(ctx, userID, nil)
		}
		if err != nil {
			return n, err
		}
	}
	logger.Info("decisions reset", zap.String("userId", userID), zap.String("itemId", itemID), zap.Int("count", n))
	return n, nil
}

// IsMutualLike reports whether ownerID currently likes any item of userID
func (as *ActionService) IsMutualLike(ctx context.Context, userID, ownerID string) (bool, error) {
	liked, err := as.likedBy(ctx, ownerID)
	if err != nil {
		return false, err
	}
	if len(liked) == 0 {
		return false, nil
	}

	mine, err := as.Store.ListItems(ctx, models.ItemFilter{OwnerID: userID})
	if err != nil {
		return false, fmt.Errorf("failed to load items of %s: %w", userID, err)
	}
	for _, item := range mine {
		if _, ok := liked[item.ID]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (as *ActionService) likedBy(ctx context.Context, userID string) (map[string]struct{}, error) {
	if as.Index != nil {
		ids, err := as.Index.LikedBy(ctx, userID)
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		return set, nil
	}

	actions, err := as.Store.ActionsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions of %s: %w", userID, err)
	}
	return matching.LikedItemIDs(matching.LatestByItem(actions)), nil
}

func (as *ActionService) createMatch(ctx context.Context, userID string, theirItem *models.Item) (*models.MatchNotice, error) {
	ownerName := "Unknown"
	owner, err := as.Store.GetUser(ctx, theirItem.OwnerID)
	switch {
	case err == nil && owner.Name != "":
		ownerName = owner.Name
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("failed to fetch owner profile: %w", err)
	}

	chatID := models.ConversationID(userID, theirItem.OwnerID)
	if as.Chats != nil {
		greeting := fmt.Sprintf("You have matched with %s! Say Hi!", ownerName)
		if chatID, err = as.Chats.StartConversation(ctx, userID, theirItem.OwnerID, greeting); err != nil {
			return nil, fmt.Errorf("failed to add match message: %w", err)
		}
	}

	metrics.MatchesCreated.Inc()
	logger.Info("match created", zap.String("userId", userID), zap.String("ownerId", theirItem.OwnerID), zap.String("itemId", theirItem.ID))

	notice := &models.MatchNotice{Message: "It's a match!", OtherUserID: theirItem.OwnerID, ItemID: theirItem.ID, ChatID: chatID}
	if as.Notifier != nil {
		as.Notifier.NotifyMatch(userID, *notice)
		as.Notifier.NotifyMatch(theirItem.OwnerID, models.MatchNotice{
			Message:     notice.Message,
			OtherUserID: userID,
			ItemID:      theirItem.ID,
			ChatID:      chatID,
		})
	}
	return notice, nil
}
