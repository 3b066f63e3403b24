package matching

import (
	"sort"

	"circloth_server/models"
)

// LikeView is everything match assembly needs to know about one requester.
// It can be derived by scanning all likes or read from a like index; both
// must produce the same view.
type LikeView struct {
	// LikedItems are the existing items the requester authoritatively likes
	LikedItems []models.Item
	// OwnItems are the items the requester owns
	OwnItems []models.Item
	// Likers maps each own item id to the users who authoritatively like it
	Likers map[string]map[string]struct{}
}

// ScanView derives a LikeView from every authoritative like in the system
// and the item catalog keyed by id.
func ScanView(userID string, likes []models.Action, catalog map[string]models.Item) LikeView {
	view := LikeView{Likers: make(map[string]map[string]struct{})}

	ownIDs := make(map[string]struct{})
	for id, item := range catalog {
		if item.OwnerID == userID {
			ownIDs[id] = struct{}{}
			view.OwnItems = append(view.OwnItems, item)
		}
	}

	seen := make(map[string]struct{})
	for _, like := range likes {
		if like.UserID == userID {
			if _, dup := seen[like.ItemID]; dup {
				continue
			}
			if item, ok := catalog[like.ItemID]; ok {
				seen[like.ItemID] = struct{}{}
				view.LikedItems = append(view.LikedItems, item)
			}
			continue
		}
		if _, mine := ownIDs[like.ItemID]; mine {
			if view.Likers[like.ItemID] == nil {
				view.Likers[like.ItemID] = make(map[string]struct{})
			}
			view.Likers[like.ItemID][like.UserID] = struct{}{}
		}
	}
	return view
}

// Assemble builds the requester's match groups: one group per item they
// like whose owner likes at least one of the requester's items. Groups are
// ordered by (OtherUserID, TheirItem.ID) and YourItems by item id.
func Assemble(userID string, view LikeView) []models.MatchGroup {
	own := make([]models.Item, len(view.OwnItems))
	copy(own, view.OwnItems)
	sort.Slice(own, func(i, j int) bool { return own[i].ID < own[j].ID })

	ownIDs := make(map[string]struct{}, len(own))
	for _, item := range own {
		ownIDs[item.ID] = struct{}{}
	}

	groups := make(map[string]*models.MatchGroup)
	for _, theirItem := range view.LikedItems {
		if _, mine := ownIDs[theirItem.ID]; mine {
			continue
		}
		owner := theirItem.OwnerID
		if owner == "" || owner == userID {
			continue
		}
		if _, done := groups[theirItem.ID]; done {
			continue
		}

		var yours []models.Item
		added := make(map[string]struct{})
		for _, mine := range own {
			if _, dup := added[mine.ID]; dup {
				continue
			}
			if _, liked := view.Likers[mine.ID][owner]; liked {
				added[mine.ID] = struct{}{}
				yours = append(yours, mine)
			}
		}
		if len(yours) == 0 {
			continue
		}
		groups[theirItem.ID] = &models.MatchGroup{
			OtherUserID: owner,
			TheirItem:   theirItem,
			YourItems:   yours,
		}
	}

	out := make([]models.MatchGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OtherUserID != out[j].OtherUserID {
			return out[i].OtherUserID < out[j].OtherUserID
		}
		return out[i].TheirItem.ID < out[j].TheirItem.ID
	})
	return out
}

// DiscoverMatches runs the population scan: likes are all authoritative
// likes system-wide and catalog every existing item keyed by id.
func DiscoverMatches(userID string, likes []models.Action, catalog map[string]models.Item) []models.MatchGroup {
	return Assemble(userID, ScanView(userID, likes, catalog))
}

// LikedItemsOf returns the profile owner's items that the visitor
// authoritatively likes, in the order given.
func LikedItemsOf(profileItems []models.Item, visitorLatest map[string]models.Action) []models.Item {
	liked := LikedItemIDs(visitorLatest)
	out := make([]models.Item, 0)
	for _, item := range profileItems {
		if _, ok := liked[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}
