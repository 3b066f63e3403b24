package routes

import (
	"net/http"

	"circloth_server/controllers"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// RegisterActionRoutes sets up the like/pass endpoint
func RegisterActionRoutes(r *mux.Router, actionService *services.ActionService, limiter *ActionLimiter) {
	controller := controllers.NewActionController(actionService)

	var handler http.Handler = http.HandlerFunc(controller.HandleAction)
	if limiter != nil {
		handler = limiter.Middleware(handler)
	}
	r.Handle("/action", handler).Methods("POST")
	r.HandleFunc("/actions/{userId}", controller.ResetActions).Methods("DELETE")
}
