package repository

import (
	"context"
	"database/sql"
	"time"
)

// AuditEntry is one persisted authentication or directory event. Emails are
// stored masked; the audit trail never holds raw account identifiers.
type AuditEntry struct {
	ID         uint64    `json:"id"`
	Kind       string    `json:"kind"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditRepo persists audit events into MySQL. It lives on the relational
// side so the trail survives a wipe of the key-value store.
type AuditRepo struct {
	DB *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// EnsureSchema creates the auth_events table when missing.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS auth_events (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		kind VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		occurred_at DATETIME NOT NULL,
		INDEX idx_auth_events_occurred_at (occurred_at)
	) CHARACTER SET utf8mb4`)
	return err
}

func (r *AuditRepo) Insert(ctx context.Context, kind, email string, occurredAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO auth_events (kind, email, occurred_at) VALUES (?,?,?)",
		kind, email, occurredAt.UTC())
	return err
}

// Recent returns the newest events, newest first.
func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, kind, email, occurred_at FROM auth_events ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Email, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
