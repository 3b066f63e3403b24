package matching

import "circloth_server/models"

// FilterBySize keeps items whose category is in prefs and whose size is
// allowed for that category. Disabled filtering returns items unchanged;
// enabled filtering with no preferences returns nothing.
func FilterBySize(items []models.Item, prefs map[string][]string, enabled bool) []models.Item {
	if !enabled {
		return items
	}

	kept := make([]models.Item, 0, len(items))
	for _, item := range items {
		sizes, ok := prefs[item.Category]
		if !ok {
			continue
		}
		for _, s := range sizes {
			if s == item.Size {
				kept = append(kept, item)
				break
			}
		}
	}
	return kept
}
