package controllers

import (
	"net/http"

	"circloth_server/services"
)

// ChatController struct
type ChatController struct {
	ChatService *services.ChatService
}

// NewChatController initializes the chat controller
func NewChatController(service *services.ChatService) *ChatController {
	return &ChatController{ChatService: service}
}

// HandleSendMessage stores a message and relays it to the receiver
func (c *ChatController) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Sender   string `json:"sender"`
		Receiver string `json:"receiver"`
		Content  string `json:"content"`
	}
	if !decode(w, r, &request) {
		return
	}

	msg, err := c.ChatService.SendMessage(r.Context(), request.Sender, request.Receiver, request.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Message sent successfully",
		"data":    msg,
	})
}

// HandleGetMessages returns the latest messages between two users, oldest first
func (c *ChatController) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	var request struct {
		User1 string `json:"user1"`
		User2 string `json:"user2"`
		Limit int    `json:"limit"`
	}
	if !decode(w, r, &request) {
		return
	}

	messages, err := c.ChatService.ListMessages(r.Context(), request.User1, request.User2, request.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}
