package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen             TicketStatus = "open"
	TicketStatusBusinessAssigned TicketStatus = "business_assigned"
	TicketStatusVendorContacted  TicketStatus = "vendor_contacted"
	TicketStatusVendorResponded  TicketStatus = "vendor_responded"
	TicketStatusResolved         TicketStatus = "resolved"
	TicketStatusClosed           TicketStatus = "closed"
)

var statusRank = map[TicketStatus]int{
	TicketStatusOpen:             0,
	TicketStatusBusinessAssigned: 1,
	TicketStatusVendorContacted:  2,
	TicketStatusVendorResponded:  3,
	TicketStatusResolved:         4,
	TicketStatusClosed:           5,
}

// Rank orders statuses along the lifecycle. Unknown statuses rank -1.
func (s TicketStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	return s.Rank() >= 0
}

// Ticket is the aggregate for customer-reported issues.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	CustomerID  string
	BusinessID  *string
	VendorID    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasBusiness reports whether a business agent is bound to the ticket.
func (t *Ticket) HasBusiness() bool {
	return t.BusinessID != nil && *t.BusinessID != ""
}

// HasVendor reports whether a vendor is bound to the ticket.
func (t *Ticket) HasVendor() bool {
	return t.VendorID != nil && *t.VendorID != ""
}
