// Package common defines shared constants and sentinel errors used across
// the cloud-drive service layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Auth flow errors.
	ErrOtpDispatch = errors.New("otp dispatch failed")
	ErrInvalidOtp  = errors.New("invalid or expired otp")

	// Session token errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Catalog/storage errors.
	ErrStoreWrite = errors.New("store write failed")
	ErrStoreRead  = errors.New("store read failed")

	// Aggregation errors.
	ErrUnknownCategory = errors.New("unknown file category")
)
