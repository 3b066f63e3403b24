package routes

import (
	"circloth_server/controllers"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes sets up routes for chat-related operations under /chat
func RegisterChatRoutes(r *mux.Router, chatService *services.ChatService) {
	controller := controllers.NewChatController(chatService)

	chatRouter := r.PathPrefix("/chat").Subrouter()

	chatRouter.HandleFunc("/send", controller.HandleSendMessage).Methods("POST")
	chatRouter.HandleFunc("/list", controller.HandleGetMessages).Methods("POST")
}
