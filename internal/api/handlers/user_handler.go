package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/taskboard-be/internal/api/validation"
	"github.com/isdelr/taskboard-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service   services.UserServiceProvider
	validator *validation.Validator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, validator *validation.Validator) *UserHandler {
	return &UserHandler{service: service, validator: validator}
}

// CreateUserPayload defines the structure for user creation requests.
type CreateUserPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserPayload
	if !decodeBody(w, r, h.validator, validation.CreateUser, &payload) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Name, payload.Email)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, CodeEmailExists, "A user with this email already exists")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to create user")
		return
	}

	writeData(w, http.StatusCreated, "User created successfully", user)
}

// GetAll handles GET /api/users.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to retrieve users")
		return
	}
	writeData(w, http.StatusOK, "Users retrieved successfully", users)
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid user ID")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "User not found")
			return
		}
		log.Error().Err(err).Int64("user_id", id).Msg("Failed to get user")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to retrieve user")
		return
	}

	writeData(w, http.StatusOK, "User retrieved successfully", user)
}

// Delete handles DELETE /api/users/{id}. The user's tasks go with it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid user ID")
		return
	}

	deleted, err := h.service.DeleteUser(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("user_id", id).Msg("Failed to delete user")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to delete user")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, CodeNotFound, "User not found")
		return
	}

	writeData(w, http.StatusOK, "User deleted successfully", nil)
}
