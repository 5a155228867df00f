package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"
)

type mockEventEmitter struct {
	mu     sync.Mutex
	events []*Event
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventEmitter) getEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, context.Background(), &Event{TenantID: "t1"})

	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)
	if len(emitter.getEvents()) != 0 {
		t.Errorf("expected 0 events, got %d", len(emitter.getEvents()))
	}
}

func TestEmitAsync_Emits(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), &Event{TenantID: "t1", EventType: "test_event"})
	time.Sleep(100 * time.Millisecond)
	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].TenantID != "t1" || events[0].EventType != "test_event" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestEmitAsync_SurvivesCancelledRequestContext(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	EmitAsync(emitter, ctx, &Event{TenantID: "t1"})
	time.Sleep(100 * time.Millisecond)
	if len(emitter.getEvents()) != 1 {
		t.Errorf("expected 1 event (background context used), got %d", len(emitter.getEvents()))
	}
}

func TestEmitAsync_Concurrent(t *testing.T) {
	emitter := &mockEventEmitter{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), &Event{TenantID: "t1"})
		}()
	}
	wg.Wait()
	time.Sleep(200 * time.Millisecond)
	if len(emitter.getEvents()) != 10 {
		t.Errorf("expected 10 events, got %d", len(emitter.getEvents()))
	}
}
