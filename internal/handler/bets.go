package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/audit"
	"github.com/osse101/StakeBot_Go/internal/bets"
	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/logger"
)

// BetHandler serves bet lifecycle and stake endpoints
type BetHandler struct {
	service  bets.Service
	auditSvc audit.Service
}

// NewBetHandler creates a new BetHandler
func NewBetHandler(service bets.Service, auditSvc audit.Service) *BetHandler {
	return &BetHandler{service: service, auditSvc: auditSvc}
}

type CreateBetRequest struct {
	GameID       uuid.UUID `json:"game_id" validate:"required"`
	LockMomentID uuid.UUID `json:"lock_moment_id" validate:"required"`
	Name         string    `json:"name" validate:"required,max=256"`
	Options      []string  `json:"options" validate:"required,min=2,dive,required,max=128"`
}

func (h *BetHandler) HandleCreateBet(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}

	var req CreateBetRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create bet"); err != nil {
		return
	}

	bet, err := h.service.CreateBet(r.Context(), acting, req.GameID, req.LockMomentID, req.Name, req.Options)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to create bet", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, bet)
}

func (h *BetHandler) HandleGetBet(w http.ResponseWriter, r *http.Request) {
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}

	bet, err := h.service.GetBet(r.Context(), betID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if bet == nil {
		respondError(w, http.StatusNotFound, ErrMsgBetNotFoundError)
		return
	}
	respondJSON(w, http.StatusOK, bet)
}

func (h *BetHandler) HandleListBets(w http.ResponseWriter, r *http.Request) {
	gameID, ok := GetUUIDParam(r, w, "gameID")
	if !ok {
		return
	}

	betList, err := h.service.ListBets(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, betList)
}

type AddOptionRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	Version int    `json:"version" validate:"gte=0"`
}

func (h *BetHandler) HandleAddOption(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}

	var req AddOptionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Add option"); err != nil {
		return
	}

	bet, err := h.service.AddOption(r.Context(), acting, betID, req.Version, req.Name)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to add option", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}

type RenameOptionRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	Version int    `json:"version" validate:"gte=0"`
}

func (h *BetHandler) HandleRenameOption(w http.ResponseWriter, r *http.Request) {
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

	var req RenameOptionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Rename option"); err != nil {
		return
	}

	bet, err := h.service.RenameOption(r.Context(), acting, betID, optionID, req.Version, req.Name)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to rename option", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}

type RemoveOptionRequest struct {
	Version int `json:"version" validate:"gte=0"`
}

func (h *BetHandler) HandleRemoveOption(w http.ResponseWriter, r *http.Request) {
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

	var req RemoveOptionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Remove option"); err != nil {
		return
	}

	bet, err := h.service.RemoveOption(r.Context(), acting, betID, optionID, req.Version)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to remove option", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}

type TransitionRequest struct {
	Version int `json:"version" validate:"gte=0"`
}

func (h *BetHandler) HandleLock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Lock bet", h.service.Lock)
}

func (h *BetHandler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Unlock bet", h.service.Unlock)
}

func (h *BetHandler) HandleRevertComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Revert completion", h.service.RevertComplete)
}

func (h *BetHandler) HandleRevertCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Revert cancellation", h.service.RevertCancel)
}

type CompleteBetRequest struct {
	WinningOptionIDs []uuid.UUID `json:"winning_option_ids" validate:"required,min=1"`
	Version          int         `json:"version" validate:"gte=0"`
}

func (h *BetHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}

	var req CompleteBetRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Complete bet"); err != nil {
		return
	}

	bet, err := h.service.Complete(r.Context(), acting, betID, req.Version, req.WinningOptionIDs)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to complete bet", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}

type CancelBetRequest struct {
	Reason  string `json:"reason" validate:"required,max=256"`
	Version int    `json:"version" validate:"gte=0"`
}

func (h *BetHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}

	var req CancelBetRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Cancel bet"); err != nil {
		return
	}

	bet, err := h.service.Cancel(r.Context(), acting, betID, req.Version, req.Reason)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to cancel bet", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}

// HandleGetBetAudit returns every ledger entry a bet produced
func (h *BetHandler) HandleGetBetAudit(w http.ResponseWriter, r *http.Request) {
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}

	entries, err := h.auditSvc.BetHistory(r.Context(), betID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: entries})
}

func (h *BetHandler) transition(w http.ResponseWriter, r *http.Request, actionName string,
	op func(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error)) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}
	betID, ok := GetUUIDParam(r, w, "betID")
	if !ok {
		return
	}

	var req TransitionRequest
	if err := DecodeAndValidateRequest(r, w, &req, actionName); err != nil {
		return
	}

	bet, err := op(r.Context(), acting, betID, req.Version)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to "+actionName, "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}
