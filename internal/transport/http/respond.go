package http

import (
	"encoding/json"
	"net/http"

	"github.com/carebase/carebase/internal/pagination"
)

// FieldError pinpoints a rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// envelope is the uniform response shape. Success responses carry
// data and optionally pagination; failures carry a message and
// optionally field errors.
type envelope struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	Data       any              `json:"data,omitempty"`
	Errors     []FieldError     `json:"errors,omitempty"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: true, Message: message})
}

func respondPage(w http.ResponseWriter, data any, meta pagination.Meta) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &meta})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Message: message})
}

func respondValidation(w http.ResponseWriter, errs []FieldError) {
	respondJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: "validation failed",
		Errors:  errs,
	})
}
