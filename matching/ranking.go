package matching

import (
	"math/rand/v2"
	"sort"

	"circloth_server/models"
	"circloth_server/utils"
)

// Rank orders candidates for display. With a requester location items are
// sorted nearest first (stable; items without a location last). Without one
// the order is a fresh uniform shuffle. The input slice is not modified.
func Rank(items []models.Item, from *models.Location) []models.Item {
	ranked := make([]models.Item, len(items))
	copy(ranked, items)

	if from == nil {
		rand.Shuffle(len(ranked), func(i, j int) {
			ranked[i], ranked[j] = ranked[j], ranked[i]
		})
		return ranked
	}

	dist := make(map[string]float64, len(ranked))
	for _, item := range ranked {
		dist[item.ID] = utils.DistanceKm(from, item.Location)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return dist[ranked[i].ID] < dist[ranked[j].ID]
	})
	return ranked
}

// Head returns the first ranked item, or nil when there is none
func Head(ranked []models.Item) *models.Item {
	if len(ranked) == 0 {
		return nil
	}
	item := ranked[0]
	return &item
}
