package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Meta    *Meta        `json:"meta,omitempty"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Issues  interface{}       `json:"issues,omitempty"`
}

type Meta struct {
	TotalItems int `json:"total_items"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "status", statusCode, "error", err)
	}
}

// Success responses
func Success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func SuccessWithMessage(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SuccessList writes a list with its item count.
func SuccessList(w http.ResponseWriter, data interface{}, count int) {
	SuccessWithMeta(w, data, &Meta{TotalItems: count})
}

func SuccessWithMeta(w http.ResponseWriter, data interface{}, meta *Meta) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error responses

func writeError(w http.ResponseWriter, statusCode int, detail ErrorDetail) {
	writeJSON(w, statusCode, Response{Error: &detail})
}

func BadRequest(w http.ResponseWriter, message string, details map[string]string) {
	writeError(w, http.StatusBadRequest, ErrorDetail{Code: "BAD_REQUEST", Message: message, Details: details})
}

func ValidationError(w http.ResponseWriter, details map[string]string) {
	writeError(w, http.StatusUnprocessableEntity, ErrorDetail{Code: "VALIDATION_ERROR", Message: "Validation failed", Details: details})
}

// UnprocessableEntity carries domain rule failures; issues lists every
// offending record when there is more than one.
func UnprocessableEntity(w http.ResponseWriter, code, message string, issues interface{}) {
	writeError(w, http.StatusUnprocessableEntity, ErrorDetail{Code: code, Message: message, Issues: issues})
}

func Unauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrorDetail{Code: "UNAUTHORIZED", Message: message})
}

func Forbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrorDetail{Code: "FORBIDDEN", Message: message})
}

func NotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrorDetail{Code: "NOT_FOUND", Message: message})
}

func Conflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrorDetail{Code: "CONFLICT", Message: message})
}

func InvalidStateTransition(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrorDetail{Code: "INVALID_STATE_TRANSITION", Message: message})
}

// Locked is returned for writes against a finalized pay run.
func Locked(w http.ResponseWriter, message string) {
	writeError(w, http.StatusLocked, ErrorDetail{Code: "LOCKED", Message: message})
}

func InternalServerError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrorDetail{Code: "INTERNAL_SERVER_ERROR", Message: message})
}
