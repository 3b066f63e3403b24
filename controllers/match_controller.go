package controllers

import (
	"net/http"

	"circloth_server/models"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// MatchController handles HTTP requests for candidates and matches
type MatchController struct {
	MatchService *services.MatchService
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService *services.MatchService) *MatchController {
	return &MatchController{MatchService: matchService}
}

// GetNextItem returns the next item the user should be shown, or null
func (mc *MatchController) GetNextItem(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID       string   `json:"user_id"`
		FilterBySize bool     `json:"filter_by_size"`
		Lat          *float64 `json:"lat"`
		Lng          *float64 `json:"lng"`
	}
	if !decode(w, r, &request) {
		return
	}
	if request.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	var loc *models.Location
	if request.Lat != nil && request.Lng != nil {
		loc = &models.Location{Lat: *request.Lat, Lng: *request.Lng}
	}

	item, err := mc.MatchService.NextCandidate(r.Context(), request.UserID, loc, request.FilterBySize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"item": item,
	})
}

// GetMatches returns the user's match groups with the other user's profile
func (mc *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	matches, err := mc.MatchService.MatchesFor(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
	})
}

// GetLikedItems returns the profile owner's items the visitor currently likes
func (mc *MatchController) GetLikedItems(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	items, err := mc.MatchService.LikedItemsOf(r.Context(), vars["profileId"], vars["visitorId"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liked_items": items,
	})
}

// GetActions lists the user's authoritative actions, newest first
func (mc *MatchController) GetActions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	actions, err := mc.MatchService.ActionsFor(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"actions": actions,
	})
}
