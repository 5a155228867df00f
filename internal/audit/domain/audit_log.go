package domain

import "time"

// Audit actions recorded by the auth code paths. The lockout guard derives
// its failure counts from LoginFailure events, so the action string is part
// of the lockout contract.
const (
	ActionLoginSuccess  = "login_success"
	ActionLoginFailure  = "login_failure"
	ActionAccountLocked = "account_locked"
)

// AuditLog represents a single audit event. Subject is the lockout key the
// event counts against (normalized email or client IP); empty for events that
// are not lockout-relevant.
type AuditLog struct {
	ID        string
	TenantID  string
	UserID    string
	Action    string
	Resource  string
	Subject   string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
