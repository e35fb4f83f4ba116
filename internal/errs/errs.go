package errs

import "errors"

var (
	ErrRequestNotFound    = errors.New("request not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmptyField         = errors.New("required field is empty")
	ErrInvalidStatus      = errors.New("invalid status: must be 'pending', 'in-progress' or 'completed'")
	ErrInvalidPriority    = errors.New("invalid priority: must be 'low', 'medium' or 'high'")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("session does not grant access")
	ErrNoActiveRequest    = errors.New("no active request selected")
)

// ErrInvalidInput is wrapped by field-level validation failures.
var ErrInvalidInput = errors.New("invalid input")
