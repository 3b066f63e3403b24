package services

import (
	"context"
	"errors"
	"fmt"

	"circloth_server/logger"
	"circloth_server/models"
	"circloth_server/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService manages the items users list for exchange
type CatalogService struct {
	Store      store.Store
	Index      LikeIndex // optional
	CheckImage ImageCheck
	Clock      Clock
}

// CreateItem assigns an id when missing, stamps timestamps and stores the
// item. A client-chosen id that is already taken fails with store.ErrConflict.
func (s *CatalogService) CreateItem(ctx context.Context, item models.Item) (*models.Item, error) {
	if item.OwnerID == "" {
		return nil, fmt.Errorf("%w: ownerId is required", ErrInvalidInput)
	}
	if err := s.checkPhotos(ctx, item.PhotoURLs); err != nil {
		return nil, err
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := s.Clock.now()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.Store.InsertItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrConflict) {
			logger.Warn("item id already taken", zap.String("itemId", item.ID), zap.String("ownerId", item.OwnerID))
			return nil, err
		}
		logger.Error("failed to create item", zap.String("ownerId", item.OwnerID), zap.Error(err))
		return nil, err
	}
	logger.Info("item created", zap.String("itemId", item.ID), zap.String("ownerId", item.OwnerID))
	return &item, nil
}

// GetItem fetches one item
func (s *CatalogService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.Store.GetItem(ctx, id)
}

// ItemsOf lists the items owned by userID
func (s *CatalogService) ItemsOf(ctx context.Context, userID string) ([]models.Item, error) {
	return s.Store.ListItems(ctx, models.ItemFilter{OwnerID: userID})
}

// UpdateItem merges the set fields of changes into the stored item. The id,
// owner and creation time never change.
func (s *CatalogService) UpdateItem(ctx context.Context, id string, changes models.Item) (*models.Item, error) {
	item, err := s.Store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPhotos(ctx, changes.PhotoURLs); err != nil {
		return nil, err
	}

	mergeItem(item, changes)
	item.UpdatedAt = s.Clock.now()

	if err := s.Store.PutItem(ctx, *item); err != nil {
		logger.Error("failed to update item", zap.String("itemId", id), zap.Error(err))
		return nil, err
	}
	return item, nil
}

// DeleteItem removes the item together with every action on it
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	if err := s.Store.DeleteItem(ctx, id); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.RemoveItem(ctx, id); err != nil {
			logger.Error("failed to drop item from like index", zap.String("itemId", id), zap.Error(err))
			return err
		}
	}
	return nil
}

// DeleteItemsOf removes every item userID owns along with the actions on
// them, returning how many items went away
func (s *CatalogService) DeleteItemsOf(ctx context.Context, userID string) (int, error) {
	owned, err := s.Store.ListItems(ctx, models.ItemFilter{OwnerID: userID})
	if err != nil {
		return 0, err
	}
	n, err := s.Store.DeleteItemsOwnedBy(ctx, userID)
	if err != nil {
		logger.Error("failed to delete items", zap.String("ownerId", userID), zap.Error(err))
		return 0, err
	}
	if s.Index != nil {
		for _, item := range owned {
			if err := s.Index.RemoveItem(ctx, item.ID); err != nil {
				logger.Error("failed to drop item from like index", zap.String("itemId", item.ID), zap.Error(err))
				return n, err
			}
		}
	}
	logger.Info("items deleted", zap.String("ownerId", userID), zap.Int("count", n))
	return n, nil
}

// ClearLikes withdraws every like on the item so the matches built on it
// dissolve. Passes stay in place.
func (s *CatalogService) ClearLikes(ctx context.Context, itemID string) (int, error) {
	if _, err := s.Store.GetItem(ctx, itemID); err != nil {
		return 0, err
	}
	n, err := s.Store.DeleteMatchTraces(ctx, models.ActionScope{ItemID: itemID})
	if err != nil {
		logger.Error("failed to clear likes", zap.String("itemId", itemID), zap.Error(err))
		return 0, err
	}
	if s.Index != nil {
		if err := s.Index.RemoveItem(ctx, itemID); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *CatalogService) checkPhotos(ctx context.Context, urls []string) error {
	check := s.CheckImage
	if check == nil {
		check = AcceptAllImages
	}
	for _, url := range urls {
		if err := check(ctx, url); err != nil {
			logger.Warn("photo rejected", zap.String("url", url), zap.Error(err))
			return fmt.Errorf("%w: %s", ErrImageRejected, url)
		}
	}
	return nil
}

func mergeItem(dst *models.Item, src models.Item) {
	set := func(field *string, v string) {
		if v != "" {
			*field = v
		}
	}
	set(&dst.Category, src.Category)
	set(&dst.Size, src.Size)
	set(&dst.ItemStory, src.ItemStory)
	set(&dst.Color, src.Color)
	set(&dst.Brand, src.Brand)
	set(&dst.Material, src.Material)
	set(&dst.AdditionalInfo, src.AdditionalInfo)
	set(&dst.SizeDetails, src.SizeDetails)
	if src.PhotoURLs != nil {
		dst.PhotoURLs = src.PhotoURLs
	}
	if src.Location != nil {
		dst.Location = src.Location
	}
}
