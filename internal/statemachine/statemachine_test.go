package statemachine

import (
	"testing"

	"github.com/triage-desk/ticket-router/internal/domain"
	apperrors "github.com/triage-desk/ticket-router/pkg/util"
)

var (
	alice = &domain.User{ID: "alice", Username: "Alice", Role: domain.RoleCustomer}
	bob   = &domain.User{ID: "bob", Username: "Bob", Role: domain.RoleBusiness}
	betty = &domain.User{ID: "betty", Username: "Betty", Role: domain.RoleBusiness}
	carl  = &domain.User{ID: "carl", Username: "Carl", Role: domain.RoleVendor}
	vera  = &domain.User{ID: "vera", Username: "Vera", Role: domain.RoleVendor}
)

func ticketAt(status domain.TicketStatus, business, vendor *domain.User) *domain.Ticket {
	t := &domain.Ticket{ID: "t1", Status: status, CustomerID: alice.ID}
	if business != nil {
		id := business.ID
		t.BusinessID = &id
	}
	if vendor != nil {
		id := vendor.ID
		t.VendorID = &id
	}
	return t
}

func TestTableNeverMovesBackwards(t *testing.T) {
	for k, tr := range table {
		if tr.To.Rank() < k.from.Rank() {
			t.Errorf("%s/%s/%s moves %s -> %s", k.role, k.from, k.action, k.from, tr.To)
		}
		if tr.Effects.Has(EffectAppendMessage) && !tr.MessageType.Valid() {
			t.Errorf("%s/%s/%s appends without a message type", k.role, k.from, k.action)
		}
	}
}

func TestNoTransitionLeavesClosed(t *testing.T) {
	for k := range table {
		if k.from == domain.TicketStatusClosed {
			t.Fatalf("closed must be terminal, found %s/%s", k.role, k.action)
		}
	}
}

func TestRequiredRoles(t *testing.T) {
	cases := map[Action]domain.Role{
		ActionAssignBusiness:  domain.RoleBusiness,
		ActionContactVendor:   domain.RoleBusiness,
		ActionVendorMessage:   domain.RoleVendor,
		ActionBusinessMessage: domain.RoleBusiness,
		ActionResolve:         domain.RoleBusiness,
	}
	for action, want := range cases {
		got, ok := RequiredRole(action)
		if !ok || got != want {
			t.Errorf("RequiredRole(%s) = %s, %v; want %s", action, got, ok, want)
		}
	}
}

func TestDispatchHappyPath(t *testing.T) {
	ticket := ticketAt(domain.TicketStatusOpen, nil, nil)

	out, err := Dispatch(Request{Ticket: ticket, Actor: bob, Action: ActionAssignBusiness, Target: bob})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if out.To != domain.TicketStatusBusinessAssigned || out.BusinessID == nil || *out.BusinessID != bob.ID || out.Append {
		t.Fatalf("unexpected assign outcome: %+v", out)
	}
	ticket.Status, ticket.BusinessID = out.To, out.BusinessID

	out, err = Dispatch(Request{Ticket: ticket, Actor: bob, Action: ActionContactVendor, Target: carl})
	if err != nil {
		t.Fatalf("contact: %v", err)
	}
	if out.To != domain.TicketStatusVendorContacted || *out.VendorID != carl.ID {
		t.Fatalf("unexpected contact outcome: %+v", out)
	}
	if !out.Append || out.MessageType != domain.MessageTypeVendorRequest || *out.RecipientID != carl.ID || out.SenderID != bob.ID {
		t.Fatalf("contact should append a vendor request to carl: %+v", out)
	}
	ticket.Status, ticket.VendorID = out.To, out.VendorID

	out, err = Dispatch(Request{Ticket: ticket, Actor: carl, Action: ActionVendorMessage})
	if err != nil {
		t.Fatalf("vendor reply: %v", err)
	}
	if out.To != domain.TicketStatusVendorResponded || out.MessageType != domain.MessageTypeVendorToBusiness || *out.RecipientID != bob.ID {
		t.Fatalf("unexpected vendor reply outcome: %+v", out)
	}
	ticket.Status = out.To

	out, err = Dispatch(Request{Ticket: ticket, Actor: carl, Action: ActionVendorMessage})
	if err != nil {
		t.Fatalf("second vendor reply: %v", err)
	}
	if out.StatusChanged() {
		t.Fatalf("only the first vendor reply advances the status")
	}

	out, err = Dispatch(Request{Ticket: ticket, Actor: bob, Action: ActionResolve})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.To != domain.TicketStatusResolved || out.MessageType != domain.MessageTypeResolution || *out.RecipientID != alice.ID {
		t.Fatalf("unexpected resolve outcome: %+v", out)
	}
	ticket.Status = out.To

	out, err = Dispatch(Request{Ticket: ticket, Actor: bob, Action: ActionResolve})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if out.To != domain.TicketStatusResolved || out.StatusChanged() || !out.Append || *out.RecipientID != alice.ID {
		t.Fatalf("re-resolving should stay resolved and append another resolution: %+v", out)
	}
}

func TestDispatchResolveWithoutVendor(t *testing.T) {
	out, err := Dispatch(Request{Ticket: ticketAt(domain.TicketStatusBusinessAssigned, bob, nil), Actor: bob, Action: ActionResolve})
	if err != nil {
		t.Fatalf("resolve straight after assignment should be allowed: %v", err)
	}
	if out.To != domain.TicketStatusResolved {
		t.Fatalf("unexpected status %s", out.To)
	}
}

func TestDispatchBusinessMessageWithoutVendorHasNoRecipient(t *testing.T) {
	out, err := Dispatch(Request{Ticket: ticketAt(domain.TicketStatusBusinessAssigned, bob, nil), Actor: bob, Action: ActionBusinessMessage})
	if err != nil {
		t.Fatalf("business message: %v", err)
	}
	if out.RecipientID != nil {
		t.Fatalf("no vendor bound, recipient should be unset")
	}
	if out.StatusChanged() {
		t.Fatalf("business messages never change status")
	}
}

func TestDispatchRejections(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		code string
	}{
		{
			name: "customer cannot assign",
			req:  Request{Ticket: ticketAt(domain.TicketStatusOpen, nil, nil), Actor: alice, Action: ActionAssignBusiness, Target: alice},
			code: apperrors.CodeInvalidRole,
		},
		{
			name: "assign target must be business",
			req:  Request{Ticket: ticketAt(domain.TicketStatusOpen, nil, nil), Actor: bob, Action: ActionAssignBusiness, Target: carl},
			code: apperrors.CodeInvalidRole,
		},
		{
			name: "reassignment is not allowed",
			req:  Request{Ticket: ticketAt(domain.TicketStatusBusinessAssigned, bob, nil), Actor: betty, Action: ActionAssignBusiness, Target: betty},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "contact vendor before assignment",
			req:  Request{Ticket: ticketAt(domain.TicketStatusOpen, nil, nil), Actor: bob, Action: ActionContactVendor, Target: carl},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "contact target must be vendor",
			req:  Request{Ticket: ticketAt(domain.TicketStatusBusinessAssigned, bob, nil), Actor: bob, Action: ActionContactVendor, Target: alice},
			code: apperrors.CodeInvalidRole,
		},
		{
			name: "only the assigned business contacts vendors",
			req:  Request{Ticket: ticketAt(domain.TicketStatusBusinessAssigned, bob, nil), Actor: betty, Action: ActionContactVendor, Target: carl},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "vendor cannot be swapped",
			req:  Request{Ticket: ticketAt(domain.TicketStatusVendorContacted, bob, carl), Actor: bob, Action: ActionContactVendor, Target: vera},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "unbound vendor cannot reply",
			req:  Request{Ticket: ticketAt(domain.TicketStatusVendorContacted, bob, carl), Actor: vera, Action: ActionVendorMessage},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "vendor cannot reply before contact",
			req:  Request{Ticket: ticketAt(domain.TicketStatusBusinessAssigned, bob, nil), Actor: carl, Action: ActionVendorMessage},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "business message on open ticket",
			req:  Request{Ticket: ticketAt(domain.TicketStatusOpen, nil, nil), Actor: bob, Action: ActionBusinessMessage},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "only the assigned business resolves",
			req:  Request{Ticket: ticketAt(domain.TicketStatusVendorResponded, bob, carl), Actor: betty, Action: ActionResolve},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "vendor cannot resolve",
			req:  Request{Ticket: ticketAt(domain.TicketStatusVendorResponded, bob, carl), Actor: carl, Action: ActionResolve},
			code: apperrors.CodeInvalidRole,
		},
		{
			name: "only the assigned business re-resolves",
			req:  Request{Ticket: ticketAt(domain.TicketStatusResolved, bob, nil), Actor: betty, Action: ActionResolve},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "closed is terminal",
			req:  Request{Ticket: ticketAt(domain.TicketStatusClosed, bob, carl), Actor: bob, Action: ActionBusinessMessage},
			code: apperrors.CodeInvalidTransition,
		},
		{
			name: "unknown action",
			req:  Request{Ticket: ticketAt(domain.TicketStatusOpen, nil, nil), Actor: bob, Action: Action("reopen")},
			code: apperrors.CodeValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := *tc.req.Ticket
			_, err := Dispatch(tc.req)
			if !apperrors.IsCode(err, tc.code) {
				t.Fatalf("got %v, want code %s", err, tc.code)
			}
			if tc.req.Ticket.Status != before.Status {
				t.Fatalf("dispatch must not mutate the ticket")
			}
		})
	}
}

// Walks every sequence of actions up to a fixed depth and checks that no
// status reachable through Dispatch ever ranks below its predecessor.
func TestReachableStatusesOnlyMoveForward(t *testing.T) {
	actors := []*domain.User{alice, bob, betty, carl, vera}
	actions := []Action{ActionAssignBusiness, ActionContactVendor, ActionVendorMessage, ActionBusinessMessage, ActionResolve}
	seen := map[domain.TicketStatus]bool{domain.TicketStatusOpen: true}

	var walk func(ticket domain.Ticket, depth int)
	walk = func(ticket domain.Ticket, depth int) {
		if depth == 0 {
			return
		}
		for _, actor := range actors {
			for _, action := range actions {
				for _, target := range actors {
					cur := ticket
					out, err := Dispatch(Request{Ticket: &cur, Actor: actor, Action: action, Target: target})
					if err != nil {
						continue
					}
					if out.To.Rank() < ticket.Status.Rank() {
						t.Fatalf("%s by %s moved %s -> %s", action, actor.ID, ticket.Status, out.To)
					}
					seen[out.To] = true
					next := ticket
					next.Status, next.BusinessID, next.VendorID = out.To, out.BusinessID, out.VendorID
					walk(next, depth-1)
				}
			}
		}
	}
	walk(*ticketAt(domain.TicketStatusOpen, nil, nil), 4)

	if seen[domain.TicketStatusClosed] {
		t.Fatalf("closed should not be reachable")
	}
	for _, s := range []domain.TicketStatus{domain.TicketStatusBusinessAssigned, domain.TicketStatusVendorContacted, domain.TicketStatusVendorResponded, domain.TicketStatusResolved} {
		if !seen[s] {
			t.Errorf("%s should be reachable", s)
		}
	}
}
