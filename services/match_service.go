package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"circloth_server/logger"
	"circloth_server/matching"
	"circloth_server/metrics"
	"circloth_server/models"
	"circloth_server/store"

	"go.uber.org/zap"
)

// MatchService answers the read side of matching: the next candidate to
// show, the user's authoritative actions, and their current matches.
type MatchService struct {
	Store      store.Store
	Index      LikeIndex // optional; nil means population scan
	PassExpiry time.Duration
	Clock      Clock
}

// NextCandidate picks the item to show userID next. loc overrides the stored
// location when set. A nil item with a nil error means nothing is eligible.
func (s *MatchService) NextCandidate(ctx context.Context, userID string, loc *models.Location, filterBySize bool) (*models.Item, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	eligible, err := s.EligibleItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	eligible = matching.FilterBySize(eligible, user.SizePreferences, filterBySize)

	from := loc
	if from == nil {
		from = user.Location
	}
	next := matching.Head(matching.Rank(eligible, from))
	if next == nil {
		metrics.EmptyCandidates.Inc()
		logger.Debug("no eligible items", zap.String("userId", userID), zap.Bool("filterBySize", filterBySize))
	}
	return next, nil
}

// EligibleItems returns every item userID may currently be shown, unranked
func (s *MatchService) EligibleItems(ctx context.Context, userID string) ([]models.Item, error) {
	actions, err := s.Store.ActionsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}
	catalog, err := s.Store.ListItems(ctx, models.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	expiry := s.PassExpiry
	if expiry == 0 {
		expiry = matching.DefaultPassExpiry
	}
	return matching.EligibleItems(userID, matching.LatestByItem(actions), catalog, s.Clock.now(), expiry), nil
}

// ActionsFor lists the user's authoritative actions, newest first
func (s *MatchService) ActionsFor(ctx context.Context, userID string) ([]models.Action, error) {
	if err := s.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	actions, err := s.Store.ActionsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}

	latest := matching.LatestByItem(actions)
	out := make([]models.Action, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

// Discover computes userID's match groups, from the like index when one is
// configured and by scanning every like otherwise.
func (s *MatchService) Discover(ctx context.Context, userID string) ([]models.MatchGroup, error) {
	var (
		groups []models.MatchGroup
		err    error
	)
	if s.Index != nil {
		groups, err = s.discoverIndexed(ctx, userID)
	} else {
		groups, err = s.discoverScan(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	metrics.MatchGroups.Observe(float64(len(groups)))
	return groups, nil
}

func (s *MatchService) discoverScan(ctx context.Context, userID string) ([]models.MatchGroup, error) {
	likes, err := s.Store.AllLikeActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	items, err := s.Store.ListItems(ctx, models.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	catalog := make(map[string]models.Item, len(items))
	for _, item := range items {
		catalog[item.ID] = item
	}
	return matching.DiscoverMatches(userID, matching.AuthoritativeLikes(likes), catalog), nil
}

func (s *MatchService) discoverIndexed(ctx context.Context, userID string) ([]models.MatchGroup, error) {
	likedIDs, err := s.Index.LikedBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := matching.LikeView{Likers: make(map[string]map[string]struct{})}
	for _, id := range likedIDs {
		item, err := s.Store.GetItem(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load liked item %s: %w", id, err)
		}
		view.LikedItems = append(view.LikedItems, *item)
	}

	view.OwnItems, err = s.Store.ListItems(ctx, models.ItemFilter{OwnerID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load own items: %w", err)
	}
	ownIDs := make([]string, 0, len(view.OwnItems))
	for _, item := range view.OwnItems {
		ownIDs = append(ownIDs, item.ID)
	}

	likers, err := s.Index.LikersOfMany(ctx, ownIDs)
	if err != nil {
		return nil, err
	}
	for itemID, users := range likers {
		set := make(map[string]struct{}, len(users))
		for _, u := range users {
			if u != userID {
				set[u] = struct{}{}
			}
		}
		view.Likers[itemID] = set
	}
	return matching.Assemble(userID, view), nil
}

// MatchesFor returns userID's match groups with the other user's profile
func (s *MatchService) MatchesFor(ctx context.Context, userID string) ([]models.MatchWithProfile, error) {
	if err := s.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	groups, err := s.Discover(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.EnrichMatchesWithProfiles(ctx, userID, groups)
}

// EnrichMatchesWithProfiles attaches the other user's summary to each group.
// Profiles that no longer exist are reduced to their id.
func (s *MatchService) EnrichMatchesWithProfiles(ctx context.Context, userID string, groups []models.MatchGroup) ([]models.MatchWithProfile, error) {
	profiles := make(map[string]models.UserSummary)
	out := make([]models.MatchWithProfile, 0, len(groups))
	for _, g := range groups {
		summary, ok := profiles[g.OtherUserID]
		if !ok {
			other, err := s.Store.GetUser(ctx, g.OtherUserID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				summary = models.UserSummary{ID: g.OtherUserID}
			case err != nil:
				return nil, fmt.Errorf("failed to load profile %s: %w", g.OtherUserID, err)
			default:
				summary = other.Summary()
			}
			profiles[g.OtherUserID] = summary
		}

		out = append(out, models.MatchWithProfile{
			MatchID:   g.ID(userID),
			OtherUser: summary,
			TheirItem: g.TheirItem,
			YourItems: g.YourItems,
		})
	}
	return out, nil
}

// LikedItemsOf returns profileID's items that visitorID currently likes
func (s *MatchService) LikedItemsOf(ctx context.Context, profileID, visitorID string) ([]models.Item, error) {
	if err := s.requireUsers(ctx, profileID, visitorID); err != nil {
		return nil, err
	}
	items, err := s.Store.ListItems(ctx, models.ItemFilter{OwnerID: profileID})
	if err != nil {
		return nil, fmt.Errorf("failed to load items of %s: %w", profileID, err)
	}
	actions, err := s.Store.ActionsFor(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions of %s: %w", visitorID, err)
	}
	return matching.LikedItemsOf(items, matching.LatestByItem(actions)), nil
}

// requireUsers fails with store.ErrNotFound when any of the ids has no profile
func (s *MatchService) requireUsers(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := s.Store.GetUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
