package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/account"
	"github.com/osse101/StakeBot_Go/internal/audit"
	"github.com/osse101/StakeBot_Go/internal/logger"
)

// UserHandler serves account endpoints
type UserHandler struct {
	service  account.Service
	auditSvc audit.Service
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service account.Service, auditSvc audit.Service) *UserHandler {
	return &UserHandler{service: service, auditSvc: auditSvc}
}

type RegisterRequest struct {
	Slug string `json:"slug" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=128"`
}

// HandleRegister creates an account with the configured starting balance
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Register user"); err != nil {
		return
	}

	user, err := h.service.Register(r.Context(), req.Slug, req.Name)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to register user", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// HandleGetUser looks a user up by id path parameter
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUUIDParam(r, w, "userID")
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, ErrMsgUserNotFoundError)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// HandleGetUserBySlug looks a user up by the slug query parameter
func (h *UserHandler) HandleGetUserBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "Missing slug query parameter")
		return
	}

	user, err := h.service.GetUserBySlug(r.Context(), slug)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, ErrMsgUserNotFoundError)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// HandleListUsers returns every account
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type GiftRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Amount int64     `json:"amount" validate:"required,gt=0"`
	Reason string    `json:"reason" validate:"max=256"`
}

// HandleGift credits a user from nothing. Admin only, enforced by the service.
func (h *UserHandler) HandleGift(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}

	var req GiftRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Gift"); err != nil {
		return
	}

	user, err := h.service.Gift(r.Context(), acting, req.UserID, req.Amount, req.Reason)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to gift", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

type BankruptRequest struct {
	// UserID is optional; admins may reset someone else, everyone may
	// reset themselves
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// HandleBankrupt resets a balance to the starting amount
func (h *UserHandler) HandleBankrupt(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}

	var req BankruptRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Bankrupt"); err != nil {
		return
	}

	target := acting
	if req.UserID != nil {
		target = *req.UserID
	}

	user, err := h.service.Bankrupt(r.Context(), acting, target)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to declare bankruptcy", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// HandleGetUserAudit returns a user's balance history newest-first
func (h *UserHandler) HandleGetUserAudit(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUUIDParam(r, w, "userID")
	if !ok {
		return
	}
	limit := parseLimit(r, 0)

	entries, err := h.auditSvc.UserHistory(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: entries})
}
