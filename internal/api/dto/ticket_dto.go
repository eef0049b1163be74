package dto

import (
	"time"

	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/service"
)

// CreateTicketRequest payload. Accepted as form fields or JSON.
type CreateTicketRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	CustomerID  string `json:"customer_id" form:"customer_id"`
}

// AssignRequest payload.
type AssignRequest struct {
	BusinessID string `json:"business_id" form:"business_id"`
}

// ContactVendorRequest payload. BusinessID is optional.
type ContactVendorRequest struct {
	VendorID   string `json:"vendor_id" form:"vendor_id"`
	Message    string `json:"message" form:"message"`
	BusinessID string `json:"business_id" form:"business_id"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	BusinessID string `json:"business_id" form:"business_id"`
	Resolution string `json:"resolution" form:"resolution"`
}

// TicketResponse is a ticket with its parties.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Customer    *UserRef            `json:"customer"`
	Business    *UserRef            `json:"business"`
	Vendor      *UserRef            `json:"vendor"`
}

// MutationResponse acknowledges a workflow action.
type MutationResponse struct {
	ID      string              `json:"id"`
	Status  domain.TicketStatus `json:"status"`
	Message string              `json:"message"`
}

// NewTicketResponse maps a projected ticket.
func NewTicketResponse(v service.TicketView) TicketResponse {
	return TicketResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		Customer:    userRef(v.Customer),
		Business:    userRef(v.Business),
		Vendor:      userRef(v.Vendor),
	}
}
