package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Verification lifecycle errors
	ErrValidation        = errors.New("validation failed")
	ErrExpired           = errors.New("otp expired")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidState      = errors.New("invalid state for operation")
	ErrTooManyAttempts   = errors.New("too many invalid attempts")
	ErrConcurrentUpdate  = errors.New("record was modified concurrently")

	// Downstream failures
	ErrNotification = errors.New("failed to deliver notification")
	ErrDependency   = errors.New("dependency failure")
)
