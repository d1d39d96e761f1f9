package domain

import "time"

// AuditLog represents an audit event.
type AuditLog struct {
	ID string
	// Actor is the admin mobile for authenticated actions, or the submitted mobile for
	// unauthenticated ones (e.g. login_failure). Empty when unknown.
	Actor     string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
