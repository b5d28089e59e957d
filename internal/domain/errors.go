package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	// ErrUnavailable marks a transient backpressure failure the client may retry.
	ErrUnavailable = errors.New("service unavailable")

	// ErrInvalidCode is returned when a registration code is unknown, expired or mismatched.
	ErrInvalidCode = fmt.Errorf("verification code incorrect: %w", ErrBadRequest)
	// ErrInvalidStatusTransition is returned when a task cannot move to the requested status.
	ErrInvalidStatusTransition = fmt.Errorf("invalid status transition: %w", ErrConflict)
)
