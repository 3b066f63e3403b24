package matching

import (
	"time"

	"circloth_server/models"
)

// DefaultPassExpiry is how long a pass hides an item
const DefaultPassExpiry = 60 * time.Second

// Excludes reports whether an authoritative action hides its item at now.
// Likes hide forever. Passes hide while now - ts < passExpiry.
func Excludes(a models.Action, now time.Time, passExpiry time.Duration) bool {
	switch a.Kind {
	case models.ActionLike:
		return true
	case models.ActionPass:
		return now.Sub(a.Timestamp) < passExpiry
	}
	return false
}

// EligibleItems filters the catalog down to items userID may be shown:
// not owned by them and not hidden by their latest action.
func EligibleItems(userID string, latest map[string]models.Action, catalog []models.Item, now time.Time, passExpiry time.Duration) []models.Item {
	eligible := make([]models.Item, 0, len(catalog))
	for _, item := range catalog {
		if item.OwnerID == userID {
			continue
		}
		if a, ok := latest[item.ID]; ok && Excludes(a, now, passExpiry) {
			continue
		}
		eligible = append(eligible, item)
	}
	return eligible
}
