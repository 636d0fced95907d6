// Package common defines shared constants and sentinel errors used across
// client and server layers of Gokigen. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")

	// Validation errors.
	ErrValidationEmpty = errors.New("text is empty")
	ErrInvalidEntry    = errors.New("invalid entry")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Metering errors.
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrDailyBudgetExceeded = errors.New("daily network budget exceeded")

	// Remote call outcomes.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrTimeout           = errors.New("request timed out")
	ErrStaleResponse     = errors.New("stale response")
	ErrDecodeFailure     = errors.New("decode failure")
	ErrBusy              = errors.New("request already in flight")
)
