package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mkravets/go-todo-api/analytics"
	"github.com/mkravets/go-todo-api/db"
	"github.com/mkravets/go-todo-api/validation"
)

type Handler struct {
	TodoRepo    *db.TodoRepository
	RateLimiter *RateLimiter
	Analytics   *analytics.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Details []validation.FieldError `json:"details"`
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, errorResponse{Error: message})
}

func sendValidationError(w http.ResponseWriter, verr *validation.Error) {
	sendJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "Validation failed",
		Message: "Invalid data provided",
		Details: verr.Details,
	})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(ct), "application/json")
}
