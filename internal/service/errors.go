package service

import "errors"

// Sentinel errors the handler layer maps onto HTTP status codes.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("insufficient permissions")
	ErrBlocked         = errors.New("account is blocked")
	ErrAlreadyReviewed = errors.New("story already reviewed by this user")
	ErrValidation      = errors.New("validation failed")
)
