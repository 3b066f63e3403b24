package routes

import (
	"circloth_server/controllers"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// RegisterItemRoutes sets up routes for the item catalog
func RegisterItemRoutes(r *mux.Router, catalogService *services.CatalogService) {
	controller := controllers.NewItemController(catalogService)

	r.HandleFunc("/items/{userId}", controller.GetItemsByOwner).Methods("GET")
	r.HandleFunc("/items/{userId}", controller.DeleteItemsByOwner).Methods("DELETE")
	r.HandleFunc("/item", controller.CreateItem).Methods("POST")

	itemRouter := r.PathPrefix("/item/{itemId}").Subrouter()
	itemRouter.HandleFunc("", controller.GetItem).Methods("GET")
	itemRouter.HandleFunc("", controller.UpdateItem).Methods("PUT")
	itemRouter.HandleFunc("", controller.DeleteItem).Methods("DELETE")
	itemRouter.HandleFunc("/likes", controller.ClearItemLikes).Methods("DELETE")
}
