package services

import "errors"

// Domain errors. Handlers map these onto HTTP responses; anything else is
// reported as an internal failure.
var (
	// ErrDuplicateEmail indicates another user already owns the email.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrUserIDRequired indicates a task was submitted without an owner.
	ErrUserIDRequired = errors.New("user_id is required")

	ErrUserNotFound = errors.New("user not found")
	ErrTaskNotFound = errors.New("task not found")
)
