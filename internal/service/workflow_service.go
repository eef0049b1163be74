package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/events"
	"github.com/triage-desk/ticket-router/internal/repository"
	"github.com/triage-desk/ticket-router/internal/statemachine"
	apperrors "github.com/triage-desk/ticket-router/pkg/util"
)

// WorkflowService is the single entry point for ticket mutations. Every
// operation validates against the state machine, writes the ticket and
// any ledger entry in one transaction, then publishes one event.
type WorkflowService struct {
	store      repository.Store
	directory  *Directory
	ledger     *MessageLedger
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	Store      repository.Store
	Directory  *Directory
	Ledger     *MessageLedger
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// CreateTicketInput describes a new ticket.
type CreateTicketInput struct {
	CustomerID  string
	Title       string
	Description string
}

// ContactVendorInput describes a vendor escalation. BusinessID defaults
// to the business already bound to the ticket.
type ContactVendorInput struct {
	BusinessID string
	VendorID   string
	Message    string
}

// TransitionResult is the ticket after a transition and the ledger entry
// it appended, if any.
type TransitionResult struct {
	Ticket  *domain.Ticket
	Message *domain.Message
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		store:      deps.Store,
		directory:  deps.Directory,
		ledger:     deps.Ledger,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateTicket opens a ticket on behalf of a customer.
func (s *WorkflowService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	customer, err := s.directory.GetUser(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.Role != domain.RoleCustomer {
		return nil, apperrors.NewInvalidRole("only customers open tickets", map[string]any{
			"user_id": customer.ID,
			"role":    string(customer.Role),
		})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		CustomerID:  customer.ID,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Tickets.Create(ctx, ticket)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventNewTicket, ticket.ID, customer, events.NewTicketPayload{
		Title:    ticket.Title,
		Customer: customer.Username,
	})
	return ticket, nil
}

// AssignBusiness binds a business agent to an open ticket.
func (s *WorkflowService) AssignBusiness(ctx context.Context, ticketID, businessID string) (*domain.Ticket, error) {
	business, err := s.directory.GetUser(ctx, businessID)
	if err != nil {
		return nil, err
	}
	res, err := s.transition(ctx, ticketID, statemachine.Request{
		Actor:  business,
		Action: statemachine.ActionAssignBusiness,
		Target: business,
	}, "")
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketAssigned, ticketID, business, events.TicketAssignedPayload{
		Business: business.Username,
	})
	return res.Ticket, nil
}

// ContactVendor escalates a ticket to a vendor and records the request.
func (s *WorkflowService) ContactVendor(ctx context.Context, ticketID string, input ContactVendorInput) (*TransitionResult, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	businessID := input.BusinessID
	if businessID == "" {
		ticket, err := s.loadTicket(ctx, s.store.Repos().Tickets, ticketID, false)
		if err != nil {
			return nil, err
		}
		if !ticket.HasBusiness() {
			return nil, apperrors.NewInvalidTransition("ticket has no assigned business", map[string]any{
				"ticket_id": ticketID,
				"status":    string(ticket.Status),
			})
		}
		businessID = *ticket.BusinessID
	}

	business, err := s.directory.GetUser(ctx, businessID)
	if err != nil {
		return nil, err
	}
	vendor, err := s.directory.GetUser(ctx, input.VendorID)
	if err != nil {
		return nil, err
	}

	res, err := s.transition(ctx, ticketID, statemachine.Request{
		Actor:  business,
		Action: statemachine.ActionContactVendor,
		Target: vendor,
	}, input.Message)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventVendorContacted, ticketID, business, events.VendorContactedPayload{
		Vendor:   vendor.Username,
		Business: business.Username,
		Message:  res.Message.Content,
	})
	return res, nil
}

// SendMessage appends a business or vendor message. The sender's role
// decides the direction; customers cannot send.
func (s *WorkflowService) SendMessage(ctx context.Context, ticketID, senderID, content string) (*TransitionResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("message content required", nil)
	}
	sender, err := s.directory.GetUser(ctx, senderID)
	if err != nil {
		return nil, err
	}

	var action statemachine.Action
	switch sender.Role {
	case domain.RoleBusiness:
		action = statemachine.ActionBusinessMessage
	case domain.RoleVendor:
		action = statemachine.ActionVendorMessage
	default:
		return nil, apperrors.NewInvalidRole("only business and vendor users send messages", map[string]any{
			"user_id": sender.ID,
			"role":    string(sender.Role),
		})
	}

	res, err := s.transition(ctx, ticketID, statemachine.Request{Actor: sender, Action: action}, content)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventNewMessage, ticketID, sender, events.NewMessagePayload{
		Sender:      sender.Username,
		SenderRole:  sender.Role,
		Content:     res.Message.Content,
		MessageType: res.Message.Type,
		Status:      res.Ticket.Status,
	})
	return res, nil
}

// ResolveTicket closes out a ticket with a resolution for the customer.
func (s *WorkflowService) ResolveTicket(ctx context.Context, ticketID, businessID, resolution string) (*TransitionResult, error) {
	if strings.TrimSpace(resolution) == "" {
		return nil, apperrors.NewValidationError("resolution required", nil)
	}
	business, err := s.directory.GetUser(ctx, businessID)
	if err != nil {
		return nil, err
	}

	res, err := s.transition(ctx, ticketID, statemachine.Request{
		Actor:  business,
		Action: statemachine.ActionResolve,
	}, resolution)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketResolved, ticketID, business, events.TicketResolvedPayload{
		Business:   business.Username,
		Resolution: res.Message.Content,
	})
	return res, nil
}

// transition runs one state machine step atomically. Users must already
// be loaded; the store may be locked for the duration of fn.
func (s *WorkflowService) transition(ctx context.Context, ticketID string, req statemachine.Request, content string) (*TransitionResult, error) {
	var res TransitionResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := s.loadTicket(ctx, repos.Tickets, ticketID, true)
		if err != nil {
			return err
		}
		req.Ticket = ticket
		out, err := statemachine.Dispatch(req)
		if err != nil {
			return err
		}

		ticket.Status = out.To
		ticket.BusinessID = out.BusinessID
		ticket.VendorID = out.VendorID
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		res.Ticket = ticket

		if out.Append {
			msg, err := s.ledger.Append(ctx, repos.Messages, ticket.ID, out.SenderID, out.RecipientID, content, out.MessageType)
			if err != nil {
				return err
			}
			res.Message = msg
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket transition",
		zap.String("ticket_id", ticketID),
		zap.String("action", string(req.Action)),
		zap.String("actor_id", req.Actor.ID),
		zap.String("status", string(res.Ticket.Status)))
	return &res, nil
}

func (s *WorkflowService) loadTicket(ctx context.Context, repo repository.TicketRepository, ticketID string, forUpdate bool) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, apperrors.NewValidationError("ticket id required", nil)
	}
	get := repo.GetByID
	if forUpdate {
		get = repo.GetForUpdate
	}
	ticket, err := get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return ticket, nil
}

// publish runs after commit. Sink failures are logged and never undo the
// mutation. The request's cancellation does not reach the sinks.
func (s *WorkflowService) publish(ctx context.Context, eventType events.EventType, ticketID string, actor *domain.User, payload any) {
	if s.dispatcher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     events.Actor{UserID: actor.ID, Username: actor.Username, Role: actor.Role},
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}
