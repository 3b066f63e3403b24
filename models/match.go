package models

// MatchGroup is a reciprocal-like relationship seen from one user: they liked
// TheirItem (owned by OtherUserID) and OtherUserID liked each of YourItems.
// Match groups are derived from actions and never stored.
type MatchGroup struct {
	OtherUserID string `json:"otherUserId"`
	TheirItem   Item   `json:"theirItem"`
	YourItems   []Item `json:"yourItems"`
}

// ID is the derived identity of the group for the given requester
func (g MatchGroup) ID(requesterID string) string {
	return requesterID + ":" + g.OtherUserID + ":" + g.TheirItem.ID
}

// MatchWithProfile combines a match group with the other user's profile data
type MatchWithProfile struct {
	MatchID   string      `json:"matchId"`
	OtherUser UserSummary `json:"otherUser"`
	TheirItem Item        `json:"theirItem"`
	YourItems []Item      `json:"yourItems"`
}

// MatchNotice is pushed to both users when a like completes a match
type MatchNotice struct {
	Message     string `json:"message"`
	OtherUserID string `json:"otherUserId"`
	ItemID      string `json:"itemId"`
	ChatID      string `json:"chatId"`
}
