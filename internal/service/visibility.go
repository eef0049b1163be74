package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/repository"
	apperrors "github.com/triage-desk/ticket-router/pkg/util"
)

// TicketView is a ticket with its parties resolved.
type TicketView struct {
	domain.Ticket
	Customer *domain.User
	Business *domain.User
	Vendor   *domain.User
}

// MessageView is a message with sender and recipient resolved.
type MessageView struct {
	domain.Message
	Sender    *domain.User
	Recipient *domain.User
}

// Visibility projects tickets and messages onto what a viewer's role may see.
type Visibility struct {
	store     repository.Store
	directory *Directory
	ledger    *MessageLedger
}

// NewVisibility wires the read side.
func NewVisibility(store repository.Store, directory *Directory, ledger *MessageLedger) *Visibility {
	return &Visibility{store: store, directory: directory, ledger: ledger}
}

// ProjectTickets lists the tickets viewerID may see: customers their own,
// businesses all of them, vendors those they are bound to.
func (v *Visibility) ProjectTickets(ctx context.Context, viewerID string) ([]TicketView, error) {
	viewer, err := v.directory.GetUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	var filter repository.TicketFilter
	switch viewer.Role {
	case domain.RoleCustomer:
		filter.CustomerID = &viewer.ID
	case domain.RoleBusiness:
	case domain.RoleVendor:
		filter.VendorID = &viewer.ID
	default:
		return nil, apperrors.NewInvalidRole("unknown viewer role", map[string]any{"role": string(viewer.Role)})
	}

	tickets, err := v.store.Repos().Tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	users := newUserMemo(v.directory)
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		view, err := describeTicket(ctx, users, t)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ProjectMessages returns a ticket's ledger as viewerID may see it.
// Customers see only resolution messages.
func (v *Visibility) ProjectMessages(ctx context.Context, ticketID, viewerID string) ([]MessageView, error) {
	viewer, err := v.directory.GetUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if _, err := v.store.Repos().Tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewInternalError(err)
	}

	msgs, err := v.ledger.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	users := newUserMemo(v.directory)
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		if !canSee(viewer.Role, m) {
			continue
		}
		view := MessageView{Message: m}
		if view.Sender, err = users.get(ctx, &m.SenderID); err != nil {
			return nil, err
		}
		if view.Recipient, err = users.get(ctx, m.RecipientID); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// DescribeTicket resolves the parties of a single ticket.
func (v *Visibility) DescribeTicket(ctx context.Context, ticket domain.Ticket) (TicketView, error) {
	return describeTicket(ctx, newUserMemo(v.directory), ticket)
}

func canSee(role domain.Role, m domain.Message) bool {
	switch role {
	case domain.RoleBusiness, domain.RoleVendor:
		return true
	case domain.RoleCustomer:
		return m.Type == domain.MessageTypeResolution
	default:
		return false
	}
}

func describeTicket(ctx context.Context, users *userMemo, t domain.Ticket) (TicketView, error) {
	view := TicketView{Ticket: t}
	var err error
	if view.Customer, err = users.get(ctx, &t.CustomerID); err != nil {
		return TicketView{}, err
	}
	if view.Business, err = users.get(ctx, t.BusinessID); err != nil {
		return TicketView{}, err
	}
	if view.Vendor, err = users.get(ctx, t.VendorID); err != nil {
		return TicketView{}, err
	}
	return view, nil
}

// userMemo caches directory lookups for the span of one listing.
type userMemo struct {
	directory *Directory
	seen      map[string]*domain.User
}

func newUserMemo(d *Directory) *userMemo {
	return &userMemo{directory: d, seen: make(map[string]*domain.User)}
}

func (m *userMemo) get(ctx context.Context, id *string) (*domain.User, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	if u, ok := m.seen[*id]; ok {
		return u, nil
	}
	u, err := m.directory.GetUser(ctx, *id)
	if err != nil {
		return nil, err
	}
	m.seen[*id] = u
	return u, nil
}
