package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// User service specific errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
)

// Match service specific errors
var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrMatchNotActive = errors.New("match is not active")
	ErrNotParticipant = errors.New("user is not a participant of this match")
	ErrNotYourTurn    = errors.New("not your turn")
)
