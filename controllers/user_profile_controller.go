package controllers

import (
	"net/http"

	"circloth_server/models"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// UserProfileController handles requests related to user profiles
type UserProfileController struct {
	UserService *services.UserService
}

// NewUserProfileController creates a new instance of UserProfileController
func NewUserProfileController(userService *services.UserService) *UserProfileController {
	return &UserProfileController{UserService: userService}
}

// GetUserProfile handles fetching a user profile by ID
func (c *UserProfileController) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := c.UserService.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateUserProfile merges the request body into the profile, creating it
// on first write. PUT and PATCH behave the same.
func (c *UserProfileController) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var patch models.UserPatch
	if !decode(w, r, &patch) {
		return
	}

	profile, err := c.UserService.UpdateUser(r.Context(), userID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"profile": profile,
	})
}

// DeleteUserProfile deletes the profile with its items, actions and chats
func (c *UserProfileController) DeleteUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if err := c.UserService.DeleteUser(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile deleted successfully",
		"userId":  userID,
	})
}

// GetSizePreferences returns the user's category -> sizes map
func (c *UserProfileController) GetSizePreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := c.UserService.SizePreferences(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"size_preferences": prefs,
	})
}

// UpdateSizePreferences replaces the user's size preferences
func (c *UserProfileController) UpdateSizePreferences(w http.ResponseWriter, r *http.Request) {
	var request struct {
		SizePreferences map[string][]string `json:"size_preferences"`
	}
	if !decode(w, r, &request) {
		return
	}

	prefs, err := c.UserService.UpdateSizePreferences(r.Context(), mux.Vars(r)["userId"], request.SizePreferences)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Size preferences updated successfully",
		"size_preferences": prefs,
	})
}
