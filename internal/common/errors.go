package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Chat errors
	ErrEmptyContent    = errors.New("message content is empty")
	ErrInvalidIdentity = errors.New("invalid participant identity")
	ErrSelfMessage     = errors.New("cannot send a message to yourself")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)
