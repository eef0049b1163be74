package mq

import (
	"context"
	"testing"
)

func TestRoutingKey(t *testing.T) {
	if got := RoutingKey("ticket_resolved"); got != "ticket.ticket_resolved" {
		t.Fatalf("RoutingKey = %q", got)
	}
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *RabbitPublisher
	if err := p.Publish(context.Background(), "ticket.new_ticket", []byte("{}")); err != nil {
		t.Fatalf("publish on nil publisher: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close on nil publisher: %v", err)
	}
}
