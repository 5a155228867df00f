package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/authkeep/authkeep/internal/audit/domain"
)

// SentinelTenantID is the tenant_id used for audit events that have no tenant
// context (e.g. malformed login requests).
const SentinelTenantID = "_system"

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// Recorder accepts audit entries. Implementations may persist synchronously
// or hand off to a bounded queue (AsyncWriter); either way Record never
// returns an error to the caller.
type Recorder interface {
	Record(ctx context.Context, e *domain.AuditLog)
}

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures never affect the caller. subject is the
// lockout key the event counts against (normalized email or IP); pass ""
// for events that are not lockout-relevant.
type AuditLogger interface {
	LogEvent(ctx context.Context, tenantID, userID, action, resource, subject, metadata string)
}

// Logger implements AuditLogger on top of a Recorder and an optional IP extractor.
type Logger struct {
	rec         Recorder
	ipExtractor IPExtractor
	nowF        func() time.Time
}

// NewLogger returns an AuditLogger that hands entries to rec and uses
// ipExtractor for client IP. ipExtractor may be nil; then IP is recorded as
// "unknown".
func NewLogger(rec Recorder, ipExtractor IPExtractor) *Logger {
	return &Logger{rec: rec, ipExtractor: ipExtractor, nowF: func() time.Time { return time.Now().UTC() }}
}

// LogEvent records one audit log entry. Best-effort; never fails the caller.
func (l *Logger) LogEvent(ctx context.Context, tenantID, userID, action, resource, subject, metadata string) {
	if l.rec == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if tenantID == "" {
		tenantID = SentinelTenantID
	}
	l.rec.Record(ctx, &domain.AuditLog{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Subject:   subject,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.nowF(),
	})
}
