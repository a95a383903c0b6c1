// Package service implements the credential and session core: token
// issuance and rotation, the session lifecycle, the user directory
// operations and the audit event publisher.
package service

import "errors"

// Error taxonomy surfaced to the HTTP layer. Handlers map these with
// errors.Is; anything else is an internal failure and becomes a 5xx.
var (
	// ErrUnauthorized covers bad credentials, invalid/expired/blacklisted
	// tokens, revoked refresh tokens and disabled users. The client-facing
	// message never distinguishes the cause.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrForbidden means authenticated but lacking a required role.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means a create collided with an existing record.
	ErrConflict = errors.New("user already exists")

	// ErrBadRequest covers missing users on update/delete/key-rotate, an
	// empty API key, and attempts to downgrade or remove the bootstrap
	// admin.
	ErrBadRequest = errors.New("bad request")
)

// Token verification failures. The session service folds all of them into
// ErrUnauthorized before they reach a client.
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWrongKind    = errors.New("invalid token type")
	ErrRevoked      = errors.New("refresh token revoked or not found")
)
