package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/events"
	"github.com/triage-desk/ticket-router/internal/mq"
	"github.com/triage-desk/ticket-router/internal/realtime"
)

// DefaultQueueSize bounds pending deliveries when queued delivery is on.
const DefaultQueueSize = 256

// Broadcaster fans an encoded event out to live viewers.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload []byte) realtime.BroadcastResult
}

// NotificationService turns domain events into pushes to connected
// viewers and, when a relay is configured, into broker messages.
type NotificationService struct {
	dispatcher events.Dispatcher
	hub        Broadcaster
	relay      mq.Publisher
	logger     *zap.Logger
	queue      chan delivery
}

type delivery struct {
	event events.Event
	body  []byte
}

// NewNotificationService creates the service. relay may be nil. Delivery
// runs on the publishing goroutine until EnableQueue is called.
func NewNotificationService(dispatcher events.Dispatcher, hub Broadcaster, relay mq.Publisher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		hub:        hub,
		relay:      relay,
		logger:     logger,
	}
}

// EnableQueue hands deliveries to Run instead of performing them inline.
// Call it before RegisterHandlers. When the queue is full the event is
// dropped for live viewers; delivery is best effort.
func (n *NotificationService) EnableQueue(size int) {
	if size <= 0 {
		size = DefaultQueueSize
	}
	n.queue = make(chan delivery, size)
}

// RegisterHandlers subscribes to every workflow event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.SubscribeAll(n.handle)
}

// Run delivers queued events until ctx is done, then flushes whatever
// is still queued.
func (n *NotificationService) Run(ctx context.Context) {
	if n.queue == nil {
		<-ctx.Done()
		return
	}
	for {
		select {
		case d := <-n.queue:
			n.deliver(ctx, d)
		case <-ctx.Done():
			for {
				select {
				case d := <-n.queue:
					n.deliver(context.Background(), d)
				default:
					return
				}
			}
		}
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	body, err := events.Encode(event)
	if err != nil {
		n.logger.Error("encode event", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}

	d := delivery{event: event, body: body}
	if n.queue == nil {
		n.deliver(ctx, d)
		return nil
	}
	select {
	case n.queue <- d:
	default:
		n.logger.Warn("notification queue full, event dropped",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, d delivery) {
	if n.hub != nil {
		res := n.hub.Broadcast(ctx, d.body)
		n.logger.Debug("event broadcast",
			zap.String("event_type", string(d.event.Type)),
			zap.String("ticket_id", d.event.TicketID),
			zap.Int("delivered", res.Delivered),
			zap.Int("failed", len(res.Failed)))
	}

	if n.relay != nil {
		if err := n.relay.Publish(ctx, mq.RoutingKey(string(d.event.Type)), d.body); err != nil {
			n.logger.Warn("relay event failed",
				zap.String("event_type", string(d.event.Type)),
				zap.String("ticket_id", d.event.TicketID),
				zap.Error(err))
		}
	}
}
