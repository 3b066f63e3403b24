package models

// Action kinds a user can record against an item
const (
	ActionLike ActionKind = "like"
	ActionPass ActionKind = "pass"
)

// Chat statuses
const (
	ChatStatusActive   = "active"
	ChatStatusArchived = "archived"
)

// Default DynamoDB table names. Overridable through configuration.
const (
	ItemsTable    = "Items"
	UsersTable    = "Users"
	ActionsTable  = "Actions"
	ChatsTable    = "Chats"
	MessagesTable = "Messages"
)

// Secondary indexes used by the DynamoDB store
const (
	OwnerIDIndex = "ownerId-index"
	ItemIDIndex  = "itemId-index"
)

// SizeCategories are the item categories a size preference can name
var SizeCategories = []string{
	"tops",
	"jackets_sweaters",
	"pants_shorts",
	"dresses_skirts",
	"shoes",
	"accessories",
	"other",
}

// IsSizeCategory reports whether c is a known category
func IsSizeCategory(c string) bool {
	for _, known := range SizeCategories {
		if c == known {
			return true
		}
	}
	return false
}
