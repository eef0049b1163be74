package events

import (
	"time"

	"github.com/triage-desk/ticket-router/internal/domain"
)

// EventType enumerates supported event identifiers. The values are the
// "type" field clients switch on.
type EventType string

const (
	EventNewTicket       EventType = "new_ticket"
	EventTicketAssigned  EventType = "ticket_assigned"
	EventVendorContacted EventType = "vendor_contacted"
	EventNewMessage      EventType = "new_message"
	EventTicketResolved  EventType = "ticket_resolved"
)

// AllTypes lists every event the workflow emits.
var AllTypes = []EventType{
	EventNewTicket,
	EventTicketAssigned,
	EventVendorContacted,
	EventNewMessage,
	EventTicketResolved,
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewTicketPayload payload.
type NewTicketPayload struct {
	Title    string `json:"title"`
	Customer string `json:"customer"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Business string `json:"business"`
}

// VendorContactedPayload payload.
type VendorContactedPayload struct {
	Vendor   string `json:"vendor"`
	Business string `json:"business"`
	Message  string `json:"message"`
}

// NewMessagePayload payload.
type NewMessagePayload struct {
	Sender      string              `json:"sender"`
	SenderRole  domain.Role         `json:"sender_role"`
	Content     string              `json:"content"`
	MessageType domain.MessageType  `json:"message_type"`
	Status      domain.TicketStatus `json:"status"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Business   string `json:"business"`
	Resolution string `json:"resolution"`
}
