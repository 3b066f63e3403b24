package models

import "time"

// ActionKind is a like/pass decision
type ActionKind string

// ParseActionKind validates a raw action string
func ParseActionKind(s string) (ActionKind, bool) {
	switch k := ActionKind(s); k {
	case ActionLike, ActionPass:
		return k, true
	}
	return "", false
}

// Action is one decision a user recorded on an item
type Action struct {
	UserID    string     `json:"user_id"`
	ItemID    string     `json:"item_id"`
	Kind      ActionKind `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
}

// ActionScope selects actions by user, by item, or both
type ActionScope struct {
	UserID string
	ItemID string
}

// IsEmpty reports whether the scope would select every action
func (s ActionScope) IsEmpty() bool { return s.UserID == "" && s.ItemID == "" }
