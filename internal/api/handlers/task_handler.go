package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/taskboard-be/internal/api/validation"
	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/isdelr/taskboard-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	service   services.TaskServiceProvider
	validator *validation.Validator
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider, validator *validation.Validator) *TaskHandler {
	return &TaskHandler{service: service, validator: validator}
}

// CreateTaskPayload defines the structure for task creation requests.
type CreateTaskPayload struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	UserID      int64   `json:"user_id"`
}

// UpdateStatusPayload is the only accepted task update: the status flag.
type UpdateStatusPayload struct {
	IsCompleted bool `json:"is_completed"`
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateTaskPayload
	if !decodeBody(w, r, h.validator, validation.CreateTask, &payload) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), payload.Title, payload.Description, payload.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserIDRequired):
			writeError(w, http.StatusBadRequest, CodeUserIDRequired, "user_id is required to create a task")
		case errors.Is(err, services.ErrUserNotFound):
			writeError(w, http.StatusNotFound, CodeUserNotFound, "The specified user does not exist")
		default:
			log.Error().Err(err).Int64("user_id", payload.UserID).Msg("Failed to create task")
			writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to create task")
		}
		return
	}

	writeData(w, http.StatusCreated, "Task created successfully", task)
}

// ListByUser handles GET /api/users/{id}/tasks.
func (h *TaskHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid user ID")
		return
	}

	tasks, err := h.service.ListTasksByUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to list tasks")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to retrieve tasks")
		return
	}

	writeData(w, http.StatusOK, "Tasks retrieved successfully", tasks)
}

// UpdateStatus handles PUT /api/tasks/{id}.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid task ID")
		return
	}

	var payload UpdateStatusPayload
	if !decodeBody(w, r, h.validator, validation.UpdateStatus, &payload) {
		return
	}

	task, err := h.service.UpdateTaskStatus(r.Context(), id, payload.IsCompleted)
	h.writeTask(w, id, task, err, "Task updated successfully", "Failed to update task")
}

// Complete handles PATCH /api/tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid task ID")
		return
	}

	task, err := h.service.MarkCompleted(r.Context(), id)
	h.writeTask(w, id, task, err, "Task marked as completed", "Failed to mark task as completed")
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid task ID")
		return
	}

	deleted, err := h.service.DeleteTask(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("task_id", id).Msg("Failed to delete task")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to delete task")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, CodeNotFound, "Task not found")
		return
	}

	writeData(w, http.StatusOK, "Task deleted successfully", nil)
}

func (h *TaskHandler) writeTask(w http.ResponseWriter, id int64, task models.Task, err error, okMsg, failMsg string) {
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "Task not found")
			return
		}
		log.Error().Err(err).Int64("task_id", id).Msg(failMsg)
		writeError(w, http.StatusInternalServerError, CodeInternal, failMsg)
		return
	}
	writeData(w, http.StatusOK, okMsg, task)
}
