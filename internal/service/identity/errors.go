package identity

import "errors"

var (
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrProfileNotFound       = errors.New("profile not found")
	ErrInvalidOrUsedUsername = errors.New("crew username does not exist or is already used")
	ErrInvalidInput          = errors.New("invalid registration details")
)
