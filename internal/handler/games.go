package handler

import (
	"net/http"

	"github.com/osse101/StakeBot_Go/internal/bets"
	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/logger"
)

// GameHandler serves game and lock-moment endpoints
type GameHandler struct {
	service bets.Service
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(service bets.Service) *GameHandler {
	return &GameHandler{service: service}
}

type CreateGameRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Progress string `json:"progress" validate:"omitempty,oneof=Future Current Finished"`
	Order    *int   `json:"order,omitempty"`
}

func (h *GameHandler) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}

	var req CreateGameRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create game"); err != nil {
		return
	}

	game, err := h.service.CreateGame(r.Context(), acting, req.Name, domain.GameProgress(req.Progress), req.Order)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to create game", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, game)
}

type UpdateGameRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Progress string `json:"progress" validate:"required,oneof=Future Current Finished"`
	Version  int    `json:"version" validate:"gte=0"`
}

func (h *GameHandler) HandleUpdateGame(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	gameID, ok := GetUUIDParam(r, w, "gameID")
	if !ok {
		return
	}

	var req UpdateGameRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Update game"); err != nil {
		return
	}

	game, err := h.service.UpdateGame(r.Context(), acting, gameID, req.Version, req.Name, domain.GameProgress(req.Progress))
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to update game", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (h *GameHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := GetUUIDParam(r, w, "gameID")
	if !ok {
		return
	}

	game, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if game == nil {
		respondError(w, http.StatusNotFound, ErrMsgGameNotFoundError)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

func (h *GameHandler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.service.ListGames(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, games)
}

type AddLockMomentRequest struct {
	Name  string `json:"name" validate:"required,max=128"`
	Order int    `json:"order" validate:"gte=0"`
}

func (h *GameHandler) HandleAddLockMoment(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	gameID, ok := GetUUIDParam(r, w, "gameID")
	if !ok {
		return
	}

	var req AddLockMomentRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Add lock moment"); err != nil {
		return
	}

	moment, err := h.service.AddLockMoment(r.Context(), acting, gameID, req.Name, req.Order)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to add lock moment", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, moment)
}

func (h *GameHandler) HandleListLockMoments(w http.ResponseWriter, r *http.Request) {
	gameID, ok := GetUUIDParam(r, w, "gameID")
	if !ok {
		return
	}

	moments, err := h.service.ListLockMoments(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, moments)
}

// HandleLockAtMoment locks every Voting bet referencing the moment
func (h *GameHandler) HandleLockAtMoment(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	momentID, ok := GetUUIDParam(r, w, "momentID")
	if !ok {
		return
	}

	lockedIDs, err := h.service.LockAtMoment(r.Context(), acting, momentID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to lock bets at moment", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, DataResponse{
		Message: "Bets locked",
		Data:    lockedIDs,
	})
}
