// Package matching holds the decision logic of the exchange: which action on
// an item is authoritative, which items a user may be shown next, in what
// order, and which reciprocal likes form a match. Everything here is pure;
// callers load the data from a store and pass it in.
package matching

import (
	"circloth_server/models"
)

// LatestByItem resolves one user's actions to the authoritative action per
// item: the one with the greatest timestamp. On equal timestamps the action
// later in the slice wins, so callers must pass actions in storage order.
func LatestByItem(actions []models.Action) map[string]models.Action {
	latest := make(map[string]models.Action, len(actions))
	for _, a := range actions {
		prev, ok := latest[a.ItemID]
		if !ok || !a.Timestamp.Before(prev.Timestamp) {
			latest[a.ItemID] = a
		}
	}
	return latest
}

type pairKey struct {
	userID string
	itemID string
}

// AuthoritativeLikes resolves actions from any number of users to the
// authoritative action per (user, item) pair and keeps the likes. Output
// preserves the order in which each pair was first seen.
func AuthoritativeLikes(actions []models.Action) []models.Action {
	latest := make(map[pairKey]models.Action, len(actions))
	var order []pairKey
	for _, a := range actions {
		k := pairKey{a.UserID, a.ItemID}
		prev, ok := latest[k]
		if !ok {
			order = append(order, k)
		}
		if !ok || !a.Timestamp.Before(prev.Timestamp) {
			latest[k] = a
		}
	}

	likes := make([]models.Action, 0, len(order))
	for _, k := range order {
		if a := latest[k]; a.Kind == models.ActionLike {
			likes = append(likes, a)
		}
	}
	return likes
}

// LikedItemIDs returns the set of item ids whose authoritative action is a like
func LikedItemIDs(latest map[string]models.Action) map[string]struct{} {
	ids := make(map[string]struct{})
	for itemID, a := range latest {
		if a.Kind == models.ActionLike {
			ids[itemID] = struct{}{}
		}
	}
	return ids
}
