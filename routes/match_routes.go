package routes

import (
	"circloth_server/controllers"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for candidates, matches and liked items
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService) {
	controller := controllers.NewMatchController(matchService)

	r.HandleFunc("/match", controller.GetNextItem).Methods("POST")
	r.HandleFunc("/matches/{userId}", controller.GetMatches).Methods("GET", "POST")
	r.HandleFunc("/user/{visitorId}/liked_items/{profileId}", controller.GetLikedItems).Methods("GET")
	r.HandleFunc("/actions/{userId}", controller.GetActions).Methods("GET")
	r.HandleFunc("/user/{userId}/actions", controller.GetActions).Methods("GET")
}
