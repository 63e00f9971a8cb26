package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/taskboard-be/internal/api/validation"
	"github.com/rs/zerolog/log"
)

// Error codes returned in the "error" field of failed responses.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeEmailExists    = "EMAIL_ALREADY_EXISTS"
	CodeUserIDRequired = "USER_ID_REQUIRED"
	CodeUserNotFound   = "USER_NOT_FOUND"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DataResponse is the body of every successful request.
type DataResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, DataResponse{Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// parseID reads a positive integer URL parameter.
func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeBody validates the request body against schema and decodes it into
// dst. It writes the 400 response itself and reports whether to continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validation.Validator, schema string, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return false
	}

	if err := v.Decode(schema, body, dst); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, CodeBadRequest, verr.Error())
			return false
		}
		log.Error().Err(err).Str("schema", schema).Msg("Request validation failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to validate request")
		return false
	}
	return true
}
