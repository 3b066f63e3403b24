package controllers

import (
	"net/http"

	"circloth_server/logger"
	"circloth_server/models"
	"circloth_server/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ItemController handles the item catalog
type ItemController struct {
	CatalogService *services.CatalogService
}

// NewItemController creates a new ItemController instance
func NewItemController(catalogService *services.CatalogService) *ItemController {
	return &ItemController{CatalogService: catalogService}
}

// CreateItem lists a new item
func (ic *ItemController) CreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if !decode(w, r, &item) {
		return
	}

	created, err := ic.CatalogService.CreateItem(r.Context(), item)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Item added successfully",
		"item":    created,
	})
}

// GetItem fetches an item by id
func (ic *ItemController) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := ic.CatalogService.GetItem(r.Context(), mux.Vars(r)["itemId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// GetItemsByOwner lists the items a user owns
func (ic *ItemController) GetItemsByOwner(w http.ResponseWriter, r *http.Request) {
	items, err := ic.CatalogService.ItemsOf(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// UpdateItem merges the supplied fields into an item
func (ic *ItemController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]
	var changes models.Item
	if !decode(w, r, &changes) {
		return
	}

	item, err := ic.CatalogService.UpdateItem(r.Context(), itemID, changes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Item updated successfully",
		"item":    item,
	})
}

// DeleteItem removes an item and every like or pass on it
func (ic *ItemController) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]

	if err := ic.CatalogService.DeleteItem(r.Context(), itemID); err != nil {
		writeError(w, r, err)
		return
	}

	logger.Info("item deleted", zap.String("itemId", itemID))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Item deleted successfully",
		"itemId":  itemID,
	})
}

// DeleteItemsByOwner removes every item a user has listed
func (ic *ItemController) DeleteItemsByOwner(w http.ResponseWriter, r *http.Request) {
	n, err := ic.CatalogService.DeleteItemsOf(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Items deleted successfully",
		"deleted": n,
	})
}

// ClearItemLikes withdraws the likes on an item, dissolving its matches
func (ic *ItemController) ClearItemLikes(w http.ResponseWriter, r *http.Request) {
	n, err := ic.CatalogService.ClearLikes(r.Context(), mux.Vars(r)["itemId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Likes cleared",
		"cleared": n,
	})
}
