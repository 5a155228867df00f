// Package telemetry defines the event shape and emitter contract used to ship
// operational events (audit mirror, gRPC request stats) out of the process.
package telemetry

import (
	"context"
	"encoding/json"
	"time"
)

// Event is a tenant-scoped operational event. Serialized as JSON on the wire
// (Kafka message value, Loki log line). Metadata is a raw JSON document so it
// nests inside the serialized event instead of encoding as base64.
type Event struct {
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventEmitter emits telemetry events (e.g. to Kafka or OTel Logs).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
