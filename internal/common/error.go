// Package common defines shared constants and sentinel errors used across
// client and server layers of FieldSignal. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStorage means local persistence failed (disk full, corruption).
	// It is surfaced to the caller of the operation that hit it and is
	// never retried automatically.
	ErrStorage = errors.New("local storage error")

	// Remote submission errors, contained per record inside a drain pass.
	ErrUpload = errors.New("media upload failed")
	ErrInsert = errors.New("record insert failed")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
