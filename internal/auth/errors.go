package auth

import "errors"

// Errors returned by TokenService and the bearer middleware.
var (
	// ErrInvalidToken covers malformed tokens, bad signatures and
	// unexpected signing methods.
	ErrInvalidToken = errors.New("invalid bearer token")

	ErrExpiredToken = errors.New("bearer token has expired")

	// ErrTokenNotYetValid is returned while the nbf claim lies in the future.
	ErrTokenNotYetValid = errors.New("bearer token not yet valid")

	ErrMissingToken = errors.New("bearer token is missing")

	// ErrWeakSecret rejects HMAC secrets shorter than MinSecretLength.
	ErrWeakSecret = errors.New("jwt secret must be at least 32 characters")
)
