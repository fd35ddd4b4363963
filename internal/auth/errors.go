package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrInvalidToken indicates a token that failed signature, expiry or
	// type validation, or whose subject no longer exists.
	ErrInvalidToken = errors.New("auth: invalid token")
)
