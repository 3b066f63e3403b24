package services

import (
	"context"
	"fmt"

	"circloth_server/logger"
	"circloth_server/models"
	"circloth_server/store"

	"go.uber.org/zap"
)

// UserService manages profiles and size preferences
type UserService struct {
	Store store.Store
	Index LikeIndex // optional
	Clock Clock
}

// GetUser fetches a profile
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.Store.GetUser(ctx, id)
}

// UpdateUser merges patch into the profile, creating it on first write
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if patch.SizePreferences != nil {
		if err := validateSizePreferences(patch.SizePreferences); err != nil {
			return nil, err
		}
	}
	now := s.Clock.now()
	if patch.Location != nil && patch.Location.UpdatedAt == nil {
		patch.Location.UpdatedAt = &now
	}

	user, err := s.Store.PutUser(ctx, id, patch, now)
	if err != nil {
		logger.Error("failed to update user", zap.String("userId", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the profile and everything that depends on it
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	var owned []string
	if s.Index != nil {
		items, err := s.Store.ListItems(ctx, models.ItemFilter{OwnerID: id})
		if err != nil {
			return fmt.Errorf("failed to load items of %s: %w", id, err)
		}
		for _, item := range items {
			owned = append(owned, item.ID)
		}
	}

	if err := s.Store.DeleteUser(ctx, id); err != nil {
		return err
	}

	if s.Index != nil {
		if err := s.Index.RemoveUser(ctx, id, owned); err != nil {
			logger.Error("failed to drop user from like index", zap.String("userId", id), zap.Error(err))
			return err
		}
	}
	return nil
}

// SizePreferences returns the user's category -> sizes map, never nil
func (s *UserService) SizePreferences(ctx context.Context, id string) (map[string][]string, error) {
	user, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.SizePreferences == nil {
		return map[string][]string{}, nil
	}
	return user.SizePreferences, nil
}

// UpdateSizePreferences replaces the user's size preferences
func (s *UserService) UpdateSizePreferences(ctx context.Context, id string, prefs map[string][]string) (map[string][]string, error) {
	if prefs == nil {
		prefs = map[string][]string{}
	}
	user, err := s.UpdateUser(ctx, id, models.UserPatch{SizePreferences: prefs})
	if err != nil {
		return nil, err
	}
	return user.SizePreferences, nil
}

func validateSizePreferences(prefs map[string][]string) error {
	for category := range prefs {
		if !models.IsSizeCategory(category) {
			return fmt.Errorf("%w: unknown size category %q", ErrInvalidInput, category)
		}
	}
	return nil
}
