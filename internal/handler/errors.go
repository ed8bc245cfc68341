package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"talehub/internal/repository"
	"talehub/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func WriteSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service sentinels onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		WriteError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrBlocked):
		WriteError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, repository.ErrNotFound):
		WriteError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyReviewed):
		WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrValidation):
		WriteError(w, err.Error(), http.StatusBadRequest)
	default:
		WriteError(w, err.Error(), http.StatusInternalServerError)
	}
}
