package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/authkeep/authkeep/internal/audit/domain"
	auditrepo "github.com/authkeep/authkeep/internal/audit/repository"
	"github.com/authkeep/authkeep/internal/telemetry"
)

// persistTimeout bounds a single repository write from the drain goroutine.
const persistTimeout = 5 * time.Second

// AsyncWriter decouples audit producers from the database. Record enqueues
// onto a bounded channel and never blocks: when the queue is full the entry
// is dropped and the audit.events.dropped counter is incremented. A single
// drain goroutine persists entries in order and mirrors each persisted entry
// to an optional telemetry emitter.
type AsyncWriter struct {
	repo    auditrepo.Repository
	emitter telemetry.EventEmitter
	queue   chan *domain.AuditLog
	dropped metric.Int64Counter

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// NewAsyncWriter returns an AsyncWriter with a queue of the given capacity.
// emitter may be nil. Call Start before recording and Close on shutdown.
func NewAsyncWriter(repo auditrepo.Repository, emitter telemetry.EventEmitter, queueSize int) *AsyncWriter {
	if queueSize <= 0 {
		queueSize = 1024
	}
	dropped, err := otel.Meter("authkeep.audit").Int64Counter("audit.events.dropped",
		metric.WithDescription("Audit events dropped because the async queue was full"))
	if err != nil {
		log.Printf("audit: dropped counter init failed: %v", err)
	}
	return &AsyncWriter{
		repo:    repo,
		emitter: emitter,
		queue:   make(chan *domain.AuditLog, queueSize),
		dropped: dropped,
		done:    make(chan struct{}),
	}
}

// Start launches the drain goroutine. Safe to call once.
func (w *AsyncWriter) Start() {
	w.startOnce.Do(func() {
		go w.drain()
	})
}

// Record enqueues an audit entry without blocking. If the queue is full the
// entry is dropped, logged and counted; the caller is never delayed.
func (w *AsyncWriter) Record(ctx context.Context, e *domain.AuditLog) {
	if e == nil {
		return
	}
	select {
	case w.queue <- e:
	default:
		if w.dropped != nil {
			w.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("action", e.Action)))
		}
		log.Printf("audit: queue full, dropped event %s/%s", e.Action, e.Resource)
	}
}

// Close stops accepting entries and drains what is already queued, bounded by
// ctx. Entries still queued when ctx expires are dropped and counted.
func (w *AsyncWriter) Close(ctx context.Context) {
	w.closeOnce.Do(func() {
		close(w.queue)
		select {
		case <-w.done:
		case <-ctx.Done():
			log.Printf("audit: shutdown drain cut short: %v", ctx.Err())
		}
	})
}

func (w *AsyncWriter) drain() {
	defer close(w.done)
	for e := range w.queue {
		w.persist(e)
	}
}

func (w *AsyncWriter) persist(e *domain.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := w.repo.Create(ctx, e); err != nil {
		log.Printf("audit: failed to persist event %s/%s: %v", e.Action, e.Resource, err)
		return
	}
	if w.emitter == nil {
		return
	}
	md, err := json.Marshal(map[string]string{
		"resource": e.Resource,
		"subject":  e.Subject,
		"ip":       e.IP,
	})
	if err != nil {
		md = nil
	}
	if err := w.emitter.Emit(ctx, &telemetry.Event{
		TenantID:  e.TenantID,
		UserID:    e.UserID,
		EventType: e.Action,
		Source:    "audit",
		Metadata:  md,
		CreatedAt: e.CreatedAt,
	}); err != nil {
		log.Printf("audit: mirror emit failed for %s: %v", e.Action, err)
	}
}
