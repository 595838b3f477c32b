package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidFile        = errors.New("invalid file")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// ValidationError carries a client-safe description of bad input.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Detail string
}

func NewValidationError(detail string) *ValidationError {
	return &ValidationError{Detail: detail}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Detail
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FileError describes why an uploaded file was rejected.
type FileError struct {
	Detail string
}

func (e *FileError) Error() string { return e.Detail }

func (e *FileError) Is(target error) bool { return target == ErrInvalidFile }
