package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questkeep/questkeep/internal/domain"
)

// ─── Item Handlers ──────────────────────────────────────────────────────────

// handleListItems returns the user's inventory, newest first.
// GET /api/items
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	items, err := s.db.ItemsByUser(r.Context(), userID)
	if err != nil {
		log.Printf("list items: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load items")
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// createItemRequest accepts both "title" and the web client's legacy "name"
// field for the item title.
type createItemRequest struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    int64  `json:"quantity"`
	PriceBody   int64  `json:"priceBody"`
	PriceMind   int64  `json:"priceMind"`
	PriceSoul   int64  `json:"priceSoul"`
}

// handleCreateItem creates an inventory item. The price triple is fixed here
// and never changes afterwards.
// POST /api/items
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(req.Name)
	}
	if title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = domain.DefaultGroup
	}

	item, err := s.db.CreateItem(r.Context(), &domain.Item{
		UserID:      userID,
		Title:       title,
		Icon:        strings.TrimSpace(req.Icon),
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Quantity:    clampReward(req.Quantity),
		PriceBody:   clampReward(req.PriceBody),
		PriceMind:   clampReward(req.PriceMind),
		PriceSoul:   clampReward(req.PriceSoul),
	})
	if err != nil {
		log.Printf("create item: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// handleDeleteItem removes an item. Outstanding quest rewards referencing it
// are not reconciled; the link rows cascade away with the item.
// DELETE /api/items/{id}
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	itemID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid item id")
		return
	}

	err := s.db.DeleteItem(r.Context(), userID, itemID)
	if errors.Is(err, domain.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		log.Printf("delete item: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUseItem consumes one unit of stock.
// POST /api/items/{id}/use
func (s *Server) handleUseItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	itemID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid item id")
		return
	}

	item, err := s.engine.UseItem(r.Context(), userID, itemID)
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, domain.ErrNoRemainingQuantity):
		writeError(w, http.StatusBadRequest, "No remaining quantity")
	case err != nil:
		log.Printf("use item: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to use item")
	default:
		writeJSON(w, http.StatusOK, item)
	}
}

// handleBuyItem debits the price from the ledger and grants one unit.
// POST /api/items/{id}/buy
func (s *Server) handleBuyItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	itemID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid item id")
		return
	}

	item, err := s.engine.BuyItem(r.Context(), userID, itemID)
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, domain.ErrInsufficientPoints):
		writeError(w, http.StatusBadRequest, "Insufficient points")
	case err != nil:
		log.Printf("buy item: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to buy item")
	default:
		writeJSON(w, http.StatusOK, item)
	}
}

// handlePoints returns the user's current ledger.
// GET /api/user/points
func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	balance, err := s.engine.Points(r.Context(), userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("load points: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load points")
		return
	}
	writeJSON(w, http.StatusOK, balance)
}
