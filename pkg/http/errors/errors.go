package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Limit   int64  `json:"limit,omitempty"`
}

// RespondJSON writes payload with status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError writes an error body carrying code and message.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// RespondValidationError reports a 400 for the offending request field.
func RespondValidationError(w http.ResponseWriter, code, message, field string) {
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: code, Message: message, Field: field})
}

// RespondRequestTooLarge reports a 413 and the accepted size in bytes.
func RespondRequestTooLarge(w http.ResponseWriter, code, message string, limit int64) {
	RespondJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: code, Message: message, Limit: limit})
}

func RespondInternalError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

func RespondNotFound(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusNotFound, code, message)
}

func RespondUnsupportedMediaType(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusUnsupportedMediaType, code, message)
}

func RespondBadRequest(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadRequest, code, message)
}

// RespondUpstreamError reports a 502 when a collaborator service failed.
func RespondUpstreamError(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadGateway, code, message)
}

func RespondServiceUnavailable(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusServiceUnavailable, code, message)
}
