package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/triage-desk/ticket-router/internal/api/dto"
	"github.com/triage-desk/ticket-router/internal/service"
	apperrors "github.com/triage-desk/ticket-router/pkg/util"
)

// TicketsHandler exposes the workflow actions and the projected reads.
type TicketsHandler struct {
	workflow   *service.WorkflowService
	visibility *service.Visibility
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workflow *service.WorkflowService, visibility *service.Visibility) *TicketsHandler {
	return &TicketsHandler{workflow: workflow, visibility: visibility}
}

// ListForUser GET /tickets/:userID.
func (h *TicketsHandler) ListForUser(c *fiber.Ctx) error {
	views, err := h.visibility.ProjectTickets(c.UserContext(), c.Params("userID"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(views))
	for _, v := range views {
		items = append(items, dto.NewTicketResponse(v))
	}
	return c.JSON(items)
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomerID == "" {
		return apperrors.NewValidationError("customer_id required", nil)
	}
	ticket, err := h.workflow.CreateTicket(c.UserContext(), service.CreateTicketInput{
		CustomerID:  req.CustomerID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MutationResponse{
		ID:      ticket.ID,
		Status:  ticket.Status,
		Message: "Ticket created successfully",
	})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.BusinessID == "" {
		return apperrors.NewValidationError("business_id required", nil)
	}
	ticket, err := h.workflow.AssignBusiness(c.UserContext(), c.Params("id"), req.BusinessID)
	if err != nil {
		return err
	}
	return c.JSON(dto.MutationResponse{ID: ticket.ID, Status: ticket.Status, Message: "Ticket assigned successfully"})
}

// ContactVendor POST /tickets/:id/contact-vendor.
func (h *TicketsHandler) ContactVendor(c *fiber.Ctx) error {
	var req dto.ContactVendorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.VendorID == "" {
		return apperrors.NewValidationError("vendor_id required", nil)
	}
	res, err := h.workflow.ContactVendor(c.UserContext(), c.Params("id"), service.ContactVendorInput{
		BusinessID: req.BusinessID,
		VendorID:   req.VendorID,
		Message:    req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.MutationResponse{ID: res.Ticket.ID, Status: res.Ticket.Status, Message: "Vendor contacted successfully"})
}

// SendMessage POST /tickets/:id/send-message.
func (h *TicketsHandler) SendMessage(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.SenderID == "" {
		return apperrors.NewValidationError("sender_id required", nil)
	}
	res, err := h.workflow.SendMessage(c.UserContext(), c.Params("id"), req.SenderID, req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MutationResponse{ID: res.Ticket.ID, Status: res.Ticket.Status, Message: "Message sent successfully"})
}

// Resolve POST /tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.BusinessID == "" {
		return apperrors.NewValidationError("business_id required", nil)
	}
	res, err := h.workflow.ResolveTicket(c.UserContext(), c.Params("id"), req.BusinessID, req.Resolution)
	if err != nil {
		return err
	}
	return c.JSON(dto.MutationResponse{ID: res.Ticket.ID, Status: res.Ticket.Status, Message: "Ticket resolved successfully"})
}

// Messages GET /tickets/:id/messages?user_id=.
func (h *TicketsHandler) Messages(c *fiber.Ctx) error {
	viewerID := c.Query("user_id")
	if viewerID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}
	views, err := h.visibility.ProjectMessages(c.UserContext(), c.Params("id"), viewerID)
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(views))
	for _, v := range views {
		items = append(items, dto.NewMessageResponse(v))
	}
	return c.JSON(items)
}
