package domain

import "time"

// MessageType tags a ledger entry with its meaning in the workflow.
type MessageType string

const (
	MessageTypeGeneral          MessageType = "general"
	MessageTypeVendorRequest    MessageType = "vendor_request"
	MessageTypeBusinessToVendor MessageType = "business_to_vendor"
	MessageTypeVendorToBusiness MessageType = "vendor_to_business"
	MessageTypeResolution       MessageType = "resolution"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeGeneral, MessageTypeVendorRequest, MessageTypeBusinessToVendor,
		MessageTypeVendorToBusiness, MessageTypeResolution:
		return true
	}
	return false
}

// Message is an append-only ledger entry on a ticket.
type Message struct {
	ID          string
	TicketID    string
	SenderID    string
	RecipientID *string
	Content     string
	Type        MessageType
	CreatedAt   time.Time
}
