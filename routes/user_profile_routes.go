package routes

import (
	"circloth_server/controllers"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// RegisterUserProfileRoutes sets up routes for user profile operations under /user
func RegisterUserProfileRoutes(r *mux.Router, userService *services.UserService) {
	controller := controllers.NewUserProfileController(userService)

	profileRouter := r.PathPrefix("/user/{userId}").Subrouter()

	profileRouter.HandleFunc("", controller.GetUserProfile).Methods("GET")
	profileRouter.HandleFunc("", controller.UpdateUserProfile).Methods("PUT", "PATCH")
	profileRouter.HandleFunc("", controller.DeleteUserProfile).Methods("DELETE")
	profileRouter.HandleFunc("/size_preferences", controller.GetSizePreferences).Methods("GET")
	profileRouter.HandleFunc("/size_preferences", controller.UpdateSizePreferences).Methods("PATCH")
}
