package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/events"
	"github.com/triage-desk/ticket-router/internal/realtime"
	"github.com/triage-desk/ticket-router/internal/service"
)

type recordingRelay struct {
	mu     sync.Mutex
	keys   []string
	closed bool
}

func (r *recordingRelay) Publish(_ context.Context, key string, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

func (r *recordingRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// gateHub blocks every broadcast until release is closed.
type gateHub struct {
	release chan struct{}
	mu      sync.Mutex
	bodies  int
}

func (h *gateHub) Broadcast(_ context.Context, _ []byte) realtime.BroadcastResult {
	<-h.release
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bodies++
	return realtime.BroadcastResult{Delivered: 1}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop")
	}
}

func TestWorkerRelaysAndClosesRelay(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	relay := &recordingRelay{}
	svc := service.NewNotificationService(dispatcher, nil, relay, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, svc, relay, 8, zap.NewNop())

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketAssigned, TicketID: "t1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	cancel()
	waitDone(t, done)

	relay.mu.Lock()
	defer relay.mu.Unlock()
	if len(relay.keys) != 1 || relay.keys[0] != "ticket.ticket_assigned" {
		t.Fatalf("relay keys = %v", relay.keys)
	}
	if !relay.closed {
		t.Fatalf("relay should be closed on shutdown")
	}
}

func TestPublishDoesNotWaitForSlowViewers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	hub := &gateHub{release: make(chan struct{})}
	svc := service.NewNotificationService(dispatcher, hub, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, svc, nil, 8, zap.NewNop())

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < 3; i++ {
			_ = dispatcher.Publish(context.Background(), events.Event{Type: events.EventNewMessage, TicketID: "t1"})
		}
	}()
	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatalf("publishing blocked on a stalled broadcast")
	}

	close(hub.release)
	cancel()
	waitDone(t, done)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.bodies != 3 {
		t.Fatalf("queued events should all be delivered, got %d", hub.bodies)
	}
}

func TestWorkerWithoutService(t *testing.T) {
	select {
	case <-StartNotificationWorker(context.Background(), nil, nil, 0, nil):
	default:
		t.Fatalf("done should already be closed")
	}
}
