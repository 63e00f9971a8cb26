package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/taskboard-be/internal/database"
	"github.com/isdelr/taskboard-be/internal/models"
)

// Task event actions published after successful writes.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	CreateTask(ctx context.Context, title string, description *string, userID int64) (models.Task, error)
	ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error)
	GetTaskByID(ctx context.Context, id int64) (models.Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, isCompleted bool) (models.Task, error)
	MarkCompleted(ctx context.Context, id int64) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) (bool, error)
}

// TaskEventPublisher receives task changes. Implementations must not block.
type TaskEventPublisher interface {
	PublishTaskEvent(action string, task models.Task)
}

// TaskService provides business logic for task management.
type TaskService struct {
	db        *database.DB
	users     UserServiceProvider
	publisher TaskEventPublisher
	now       func() time.Time
}

// NewTaskService creates a new TaskService. publisher may be nil.
func NewTaskService(db *database.DB, users UserServiceProvider, publisher TaskEventPublisher) *TaskService {
	return &TaskService{
		db:        db,
		users:     users,
		publisher: publisher,
		now:       now,
	}
}

const taskColumns = "id, title, description, is_completed, user_id, created_at"

// CreateTask validates the owner and stores a new pending task.
func (s *TaskService) CreateTask(ctx context.Context, title string, description *string, userID int64) (models.Task, error) {
	if userID == 0 {
		return models.Task{}, ErrUserIDRequired
	}

	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	if !exists {
		return models.Task{}, ErrUserNotFound
	}

	task := models.Task{
		Title:       title,
		Description: description,
		IsCompleted: false,
		UserID:      userID,
		CreatedAt:   s.now(),
	}

	err = s.db.QueryRowContext(ctx,
		s.db.Rebind("INSERT INTO tasks (title, description, is_completed, user_id, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id"),
		task.Title, nullString(task.Description), task.IsCompleted, task.UserID, task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		// The user was removed between the existence check and the insert.
		if database.IsForeignKeyViolation(err) {
			return models.Task{}, ErrUserNotFound
		}
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	s.publish(TaskCreated, task)
	return task, nil
}

// ListTasksByUser returns a user's tasks, most recently created first.
func (s *TaskService) ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind("SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC"),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for user %d: %w", userID, err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTaskByID retrieves a single task.
func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ?"), id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return task, nil
}

// UpdateTaskStatus sets is_completed and nothing else. Status changes are the
// only mutation tasks accept.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, id int64, isCompleted bool) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE tasks SET is_completed = ? WHERE id = ?"), isCompleted, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, ErrTaskNotFound
	}

	task, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	s.publish(TaskUpdated, task)
	return task, nil
}

// MarkCompleted is UpdateTaskStatus(ctx, id, true).
func (s *TaskService) MarkCompleted(ctx context.Context, id int64) (models.Task, error) {
	return s.UpdateTaskStatus(ctx, id, true)
}

// DeleteTask removes a task and reports whether it existed.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) (bool, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind("DELETE FROM tasks WHERE id = ? RETURNING user_id"), id).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	s.publish(TaskDeleted, models.Task{ID: id, UserID: userID})
	return true, nil
}

func (s *TaskService) publish(action string, task models.Task) {
	if s.publisher != nil {
		s.publisher.PublishTaskEvent(action, task)
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task        models.Task
		description sql.NullString
	)
	if err := row.Scan(&task.ID, &task.Title, &description, &task.IsCompleted, &task.UserID, &task.CreatedAt); err != nil {
		return models.Task{}, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	return task, nil
}
