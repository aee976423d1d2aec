package handler

import (
	"errors"
	"net/http"

	"github.com/osse101/StakeBot_Go/internal/domain"
)

// Generic HTTP error messages for client responses. These intentionally do
// not expose internal error details; handlers and tests both reference
// these constants.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request. Please check your inputs."
	ErrMsgMissingQueryParam     = "Missing %s query parameter"
	ErrMsgInvalidID             = "Invalid id"

	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"

	ErrMsgUnauthorizedError   = "Authentication required"
	ErrMsgForbiddenError      = "You are not allowed to do that"
	ErrMsgUserNotFoundError   = "User not found"
	ErrMsgGameNotFoundError   = "Game not found"
	ErrMsgBetNotFoundError    = "Bet not found"
	ErrMsgOptionNotFoundError = "Option not found"
	ErrMsgStakeNotFoundError  = "Stake not found"
	ErrMsgMomentNotFoundError = "Lock moment not found"

	ErrMsgNotEnoughMoneyError  = "Not enough currency for that stake"
	ErrMsgVersionConflictError = "Someone changed this first. Reload and try again."
	ErrMsgInvalidStateError    = "The bet is not in a state that allows that"
)

// mapServiceErrorToUserMessage maps domain errors to user-facing HTTP
// responses. Version conflicts and state conflicts both answer 409: the
// request was well formed, the entity just is not where the caller
// thought. Only the version conflict is worth an automatic retry.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ErrMsgUnauthorizedError
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrMsgForbiddenError
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, ErrMsgUserNotFoundError
	case errors.Is(err, domain.ErrGameNotFound):
		return http.StatusNotFound, ErrMsgGameNotFoundError
	case errors.Is(err, domain.ErrBetNotFound):
		return http.StatusNotFound, ErrMsgBetNotFoundError
	case errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusNotFound, ErrMsgOptionNotFoundError
	case errors.Is(err, domain.ErrStakeNotFound):
		return http.StatusNotFound, ErrMsgStakeNotFoundError
	case errors.Is(err, domain.ErrLockMomentNotFound):
		return http.StatusNotFound, ErrMsgMomentNotFoundError
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest, ErrMsgNotEnoughMoneyError
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, ErrMsgVersionConflictError
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, ErrMsgInvalidStateError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}

// respondServiceError writes the mapped response for a service error
func respondServiceError(w http.ResponseWriter, err error) {
	statusCode, userMsg := mapServiceErrorToUserMessage(err)
	respondError(w, statusCode, userMsg)
}
