package controllers

import (
	"net/http"

	"circloth_server/services"

	"github.com/gorilla/mux"
)

// ActionController handles HTTP requests for actions
type ActionController struct {
	ActionService *services.ActionService
}

// NewActionController creates a new ActionController instance
func NewActionController(actionService *services.ActionService) *ActionController {
	return &ActionController{ActionService: actionService}
}

// ActionRequest is the body of POST /action
type ActionRequest struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
	Action string `json:"action"`
}

// HandleAction records a like or pass
func (ac *ActionController) HandleAction(w http.ResponseWriter, r *http.Request) {
	var request ActionRequest
	if !decode(w, r, &request) {
		return
	}

	if request.UserID == "" || request.ItemID == "" || request.Action == "" {
		http.Error(w, "user_id, item_id and action are required", http.StatusBadRequest)
		return
	}

	decision, err := ac.ActionService.RecordDecision(r.Context(), request.UserID, request.ItemID, request.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "Action recorded"
	if decision.Match != nil {
		message = decision.Match.Message
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"match":   decision.Match,
	})
}

// ResetActions forgets a user's decisions, optionally only the one on the
// item named by the item_id query parameter
func (ac *ActionController) ResetActions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	itemID := r.URL.Query().Get("item_id")

	n, err := ac.ActionService.ResetDecisions(r.Context(), userID, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Actions reset",
		"deleted": n,
	})
}
