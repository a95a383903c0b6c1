// Package queue defines the audit event payload exchanged over the message
// broker and the background consumer that persists it.
package queue

import "time"

// AuthEventQueue is the durable queue carrying audit events.
const AuthEventQueue = "auth.events"

// Event kinds. One event is published per authentication or directory
// mutation; reads are not audited.
const (
	EventLogin       = "auth.login"
	EventRefresh     = "auth.refresh"
	EventLogout      = "auth.logout"
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// AuthEvent describes a single audit event. Email is already masked by the
// publisher; raw account identifiers never cross the broker.
type AuthEvent struct {
	Kind       string    `json:"kind"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
