package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookie/service"

	log "github.com/sirupsen/logrus"
)

// Response is the JSON envelope every endpoint returns
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: false, Error: message})
}

// respondCoreError maps the core's typed failures onto HTTP statuses and
// stable error codes. Anything unrecognized is a store failure: the
// operation rolled back completely and the caller may retry it.
func respondCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidOptions):
		respondError(w, http.StatusBadRequest, "invalid_options")
	case errors.Is(err, service.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, service.ErrInvalidOption):
		respondError(w, http.StatusBadRequest, "invalid_option")
	case errors.Is(err, service.ErrInsufficientFunds):
		respondError(w, http.StatusConflict, "insufficient_funds")
	case errors.Is(err, service.ErrMarketNotFound):
		respondError(w, http.StatusNotFound, "market_not_found")
	case errors.Is(err, service.ErrMarketClosed):
		respondError(w, http.StatusConflict, "market_closed")
	case errors.Is(err, service.ErrAlreadySettled):
		respondError(w, http.StatusConflict, "already_settled")
	case errors.Is(err, service.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "unauthorized")
	default:
		log.WithError(err).Error("Operation failed against the store")
		respondError(w, http.StatusServiceUnavailable, "store_unavailable")
	}
}
