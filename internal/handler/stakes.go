package handler

import (
	"net/http"

	"github.com/osse101/StakeBot_Go/internal/bets"
	"github.com/osse101/StakeBot_Go/internal/logger"
)

// StakeHandler serves the stake endpoints under a bet's options
type StakeHandler struct {
	service bets.Service
}

// NewStakeHandler creates a new StakeHandler
func NewStakeHandler(service bets.Service) *StakeHandler {
	return &StakeHandler{service: service}
}

type PlaceStakeRequest struct {
	Amount  int64  `json:"amount" validate:"required,gt=0"`
	Message string `json:"message" validate:"max=256"`
	Version int    `json:"version" validate:"gte=0"`
}

func (h *StakeHandler) HandlePlaceStake(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}
	optionID, ok := GetUUIDParam(r, w, "optionID")
	if !ok {
		return
	}

	var req PlaceStakeRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Place stake"); err != nil {
		return
	}

	bet, err := h.service.PlaceStake(r.Context(), acting, betID, optionID, req.Version, req.Amount, req.Message)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to place stake", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, bet)
}

type ChangeStakeRequest struct {
	Amount  int64  `json:"amount" validate:"required,gt=0"`
	Message string `json:"message" validate:"max=256"`
	Version int    `json:"version" validate:"gte=0"`
}

func (h *StakeHandler) HandleChangeStake(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}
	optionID, ok := GetUUIDParam(r, w, "optionID")
	if !ok {
		return
	}

	var req ChangeStakeRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Change stake"); err != nil {
		return
	}

	bet, err := h.service.ChangeStake(r.Context(), acting, betID, optionID, req.Version, req.Amount, req.Message)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to change stake", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}

type WithdrawStakeRequest struct {
	Version int `json:"version" validate:"gte=0"`
}

func (h *StakeHandler) HandleWithdrawStake(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}
	optionID, ok := GetUUIDParam(r, w, "optionID")
	if !ok {
		return
	}

	var req WithdrawStakeRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Withdraw stake"); err != nil {
		return
	}

	bet, err := h.service.WithdrawStake(r.Context(), acting, betID, optionID, req.Version)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to withdraw stake", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}
