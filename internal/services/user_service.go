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

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, name, email string) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db  *database.DB
	now func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db, now: now}
}

// now returns the current time at the precision every supported store keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// CreateUser creates a new user. The email lookup gives a clean error for
// the common case; the UNIQUE constraint settles races between concurrent
// creates.
func (s *UserService) CreateUser(ctx context.Context, name, email string) (models.User, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT id FROM users WHERE email = ?"), email).Scan(&existing)
	switch {
	case err == nil:
		return models.User{}, ErrDuplicateEmail
	case !errors.Is(err, sql.ErrNoRows):
		return models.User{}, fmt.Errorf("failed to look up email: %w", err)
	}

	user := models.User{
		Name:      name,
		Email:     email,
		CreatedAt: s.now(),
	}

	err = s.db.QueryRowContext(ctx,
		s.db.Rebind("INSERT INTO users (name, email, created_at) VALUES (?, ?, ?) RETURNING id"),
		user.Name, user.Email, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT id, name, email, created_at FROM users WHERE id = ?"), id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// UserExists reports whether a user with the given ID is stored.
func (s *UserService) UserExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.GetUserByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListUsers returns every user ordered by ID.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteUser removes a user; the store cascades the delete to their tasks.
func (s *UserService) DeleteUser(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
