// Package repository persists user records, refresh-token bindings, the
// access-token blacklist and the audit trail. Sentinel errors defined here
// let the service layer distinguish failure scenarios with errors.Is
// without inspecting store internals.
package repository

import "errors"

// ErrUserNotFound is returned when no record exists under the canonical
// email. Services translate it into Unauthorized or BadRequest depending
// on the operation.
var ErrUserNotFound = errors.New("user not found")

// ErrRefreshMismatch is returned when a presented refresh token is absent
// from the store or differs from the currently bound value: already
// rotated, never issued, or explicitly revoked.
var ErrRefreshMismatch = errors.New("refresh token revoked or not found")
