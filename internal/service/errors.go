package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, tampered and expired session tokens alike.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("insufficient role")
	// ErrNotFound indicates the addressed record does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when provisioning an account with a taken username.
	ErrUserExists = errors.New("user already exists")

	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidStatus        = errors.New("invalid status: must be one of working, faulty, maintenance")
	ErrInvalidShiftRange    = errors.New("invalid shift range: start_time must be before end_time")
	ErrUnknownUser          = errors.New("user_id does not reference an existing user")
	ErrUnsupportedMediaType = errors.New("only audio files are allowed")
	ErrPayloadTooLarge      = errors.New("audio file too large")
)
