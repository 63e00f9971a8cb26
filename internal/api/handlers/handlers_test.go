package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/taskboard-be/internal/api/validation"
	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/isdelr/taskboard-be/internal/monitoring"
	"github.com/isdelr/taskboard-be/internal/services"
)

var errStore = errors.New("store offline")

// failingUsers returns err from every call.
type failingUsers struct{ err error }

func (f failingUsers) CreateUser(context.Context, string, string) (models.User, error) {
	return models.User{}, f.err
}
func (f failingUsers) GetUserByID(context.Context, int64) (models.User, error) {
	return models.User{}, f.err
}
func (f failingUsers) UserExists(context.Context, int64) (bool, error)  { return false, f.err }
func (f failingUsers) ListUsers(context.Context) ([]models.User, error) { return nil, f.err }
func (f failingUsers) DeleteUser(context.Context, int64) (bool, error)  { return false, f.err }

// failingTasks returns err from every call.
type failingTasks struct{ err error }

func (f failingTasks) CreateTask(context.Context, string, *string, int64) (models.Task, error) {
	return models.Task{}, f.err
}
func (f failingTasks) ListTasksByUser(context.Context, int64) ([]models.Task, error) {
	return nil, f.err
}
func (f failingTasks) GetTaskByID(context.Context, int64) (models.Task, error) {
	return models.Task{}, f.err
}
func (f failingTasks) UpdateTaskStatus(context.Context, int64, bool) (models.Task, error) {
	return models.Task{}, f.err
}
func (f failingTasks) MarkCompleted(context.Context, int64) (models.Task, error) {
	return models.Task{}, f.err
}
func (f failingTasks) DeleteTask(context.Context, int64) (bool, error) { return false, f.err }

type stubStats struct {
	snap monitoring.Snapshot
	err  error
}

func (s stubStats) Snapshot(context.Context) (monitoring.Snapshot, error) { return s.snap, s.err }

func newTestRouter(users services.UserServiceProvider, tasks services.TaskServiceProvider) http.Handler {
	v := validation.MustNew()
	uh := NewUserHandler(users, v)
	th := NewTaskHandler(tasks, v)

	r := chi.NewRouter()
	r.Get("/users", uh.GetAll)
	r.Post("/users", uh.Create)
	r.Get("/users/{id}", uh.Get)
	r.Delete("/users/{id}", uh.Delete)
	r.Get("/users/{id}/tasks", th.ListByUser)
	r.Post("/tasks", th.Create)
	r.Put("/tasks/{id}", th.UpdateStatus)
	r.Patch("/tasks/{id}/complete", th.Complete)
	r.Delete("/tasks/{id}", th.Delete)
	return r
}

func serve(h http.Handler, method, path, body string) (*httptest.ResponseRecorder, ErrorResponse) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	var out ErrorResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	return resp, out
}

func TestStorageFailuresMapToInternalError(t *testing.T) {
	h := newTestRouter(failingUsers{errStore}, failingTasks{errStore})

	cases := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/users", ""},
		{http.MethodPost, "/users", `{"name":"A","email":"a@x.com"}`},
		{http.MethodGet, "/users/1", ""},
		{http.MethodDelete, "/users/1", ""},
		{http.MethodGet, "/users/1/tasks", ""},
		{http.MethodPost, "/tasks", `{"title":"T","user_id":1}`},
		{http.MethodPut, "/tasks/1", `{"is_completed":true}`},
		{http.MethodPatch, "/tasks/1/complete", ""},
		{http.MethodDelete, "/tasks/1", ""},
	}
	for _, tc := range cases {
		resp, body := serve(h, tc.method, tc.path, tc.body)
		if resp.Code != http.StatusInternalServerError || body.Error != CodeInternal {
			t.Errorf("%s %s: expected 500 %s, got %d %q", tc.method, tc.path, CodeInternal, resp.Code, body.Error)
		}
		if strings.Contains(resp.Body.String(), errStore.Error()) {
			t.Errorf("%s %s: storage error leaked to client: %s", tc.method, tc.path, resp.Body.String())
		}
	}
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name   string
		users  error
		tasks  error
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"duplicate email", services.ErrDuplicateEmail, nil, http.MethodPost, "/users", `{"name":"A","email":"a@x.com"}`, http.StatusBadRequest, CodeEmailExists},
		{"user missing", services.ErrUserNotFound, nil, http.MethodGet, "/users/3", "", http.StatusNotFound, CodeNotFound},
		{"owner required", nil, services.ErrUserIDRequired, http.MethodPost, "/tasks", `{"title":"T"}`, http.StatusBadRequest, CodeUserIDRequired},
		{"owner missing", nil, services.ErrUserNotFound, http.MethodPost, "/tasks", `{"title":"T","user_id":9}`, http.StatusNotFound, CodeUserNotFound},
		{"task missing on update", nil, services.ErrTaskNotFound, http.MethodPut, "/tasks/4", `{"is_completed":false}`, http.StatusNotFound, CodeNotFound},
		{"task missing on complete", nil, services.ErrTaskNotFound, http.MethodPatch, "/tasks/4/complete", "", http.StatusNotFound, CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(failingUsers{tc.users}, failingTasks{tc.tasks})
			resp, body := serve(h, tc.method, tc.path, tc.body)
			if resp.Code != tc.status || body.Error != tc.code {
				t.Errorf("expected %d %s, got %d %q", tc.status, tc.code, resp.Code, body.Error)
			}
		})
	}
}

func TestInvalidIDs(t *testing.T) {
	h := newTestRouter(failingUsers{errStore}, failingTasks{errStore})
	for _, path := range []string{"/users/0", "/users/-2", "/users/abc", "/users/1.5/tasks"} {
		resp, body := serve(h, http.MethodGet, path, "")
		if resp.Code != http.StatusBadRequest || body.Error != CodeBadRequest {
			t.Errorf("GET %s: expected 400, got %d %q", path, resp.Code, body.Error)
		}
	}
	resp, _ := serve(h, http.MethodDelete, "/tasks/zero", "")
	if resp.Code != http.StatusBadRequest {
		t.Errorf("DELETE /tasks/zero: expected 400, got %d", resp.Code)
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestRouter(failingUsers{errStore}, failingTasks{errStore})
	big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `","email":"a@x.com"}`
	resp, body := serve(h, http.MethodPost, "/users", big)
	if resp.Code != http.StatusBadRequest || body.Error != CodeBadRequest {
		t.Errorf("expected 400, got %d %q", resp.Code, body.Error)
	}
}

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name   string
		stats  StatsProvider
		status int
		state  string
	}{
		{"no stats", nil, http.StatusOK, "OK"},
		{"healthy", stubStats{snap: monitoring.Snapshot{Database: "ok", UsersTotal: 2}}, http.StatusOK, "OK"},
		{"store down", stubStats{snap: monitoring.Snapshot{Database: "error"}, err: errStore}, http.StatusServiceUnavailable, "DEGRADED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(tc.stats)
			resp := httptest.NewRecorder()
			h.Get(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

			var body HealthResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("json.Unmarshal: %v", err)
			}
			if resp.Code != tc.status || body.Status != tc.state {
				t.Errorf("expected %d %s, got %d %s", tc.status, tc.state, resp.Code, body.Status)
			}
			if (tc.stats == nil) != (body.Stats == nil) {
				t.Errorf("stats presence mismatch: %+v", body.Stats)
			}
		})
	}
}
