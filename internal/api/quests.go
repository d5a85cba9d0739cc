package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questkeep/questkeep/internal/domain"
)

// ─── Quest Handlers ─────────────────────────────────────────────────────────

// handleListQuests returns the user's quests, newest first.
// GET /api/quests
func (s *Server) handleListQuests(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	quests, err := s.db.QuestsByUser(r.Context(), userID)
	if err != nil {
		log.Printf("list quests: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load quests")
		return
	}
	if quests == nil {
		quests = []domain.Quest{}
	}
	writeJSON(w, http.StatusOK, quests)
}

type createQuestRequest struct {
	Title         string  `json:"title"`
	Details       string  `json:"details"`
	Group         string  `json:"group"`
	RewardBody    int64   `json:"rewardBody"`
	RewardMind    int64   `json:"rewardMind"`
	RewardSoul    int64   `json:"rewardSoul"`
	RewardItemIDs []int64 `json:"rewardItemIds"`
}

// handleCreateQuest creates a quest. The reward triple and reward item set
// are fixed here and never change afterwards.
// POST /api/quests
func (s *Server) handleCreateQuest(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req createQuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	group := strings.TrimSpace(req.Group)
	if group == "" {
		group = domain.DefaultGroup
	}

	quest, err := s.db.CreateQuest(r.Context(), &domain.Quest{
		UserID:        userID,
		Title:         title,
		Details:       strings.TrimSpace(req.Details),
		Group:         group,
		RewardBody:    clampReward(req.RewardBody),
		RewardMind:    clampReward(req.RewardMind),
		RewardSoul:    clampReward(req.RewardSoul),
		RewardItemIDs: req.RewardItemIDs,
	})
	if errors.Is(err, domain.ErrItemNotFound) {
		writeError(w, http.StatusBadRequest, "Reward item not found")
		return
	}
	if err != nil {
		log.Printf("create quest: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create quest")
		return
	}
	writeJSON(w, http.StatusCreated, quest)
}

// handleDeleteQuest removes a quest. Already-granted rewards stay granted.
// DELETE /api/quests/{id}
func (s *Server) handleDeleteQuest(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	questID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid quest id")
		return
	}

	err := s.db.DeleteQuest(r.Context(), userID, questID)
	if errors.Is(err, domain.ErrQuestNotFound) {
		writeError(w, http.StatusNotFound, "Quest not found")
		return
	}
	if err != nil {
		log.Printf("delete quest: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete quest")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleQuestRequest struct {
	Completed *bool `json:"completed"`
}

// handleToggleQuest sets the completion flag and settles the ledger through
// the rewards engine.
// PATCH /api/quests/{id}
func (s *Server) handleToggleQuest(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	questID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid quest id")
		return
	}

	var req toggleQuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
		writeError(w, http.StatusBadRequest, "completed must be a boolean")
		return
	}

	quest, err := s.engine.ToggleQuestCompletion(r.Context(), userID, questID, *req.Completed)
	switch {
	case errors.Is(err, domain.ErrQuestNotFound):
		writeError(w, http.StatusNotFound, "Quest not found")
	case errors.Is(err, domain.ErrInsufficientPoints):
		writeError(w, http.StatusBadRequest, "Insufficient points")
	case errors.Is(err, domain.ErrNoRemainingQuantity):
		writeError(w, http.StatusBadRequest, "No remaining quantity")
	case err != nil:
		log.Printf("toggle quest: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update quest")
	default:
		writeJSON(w, http.StatusOK, quest)
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func clampReward(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
