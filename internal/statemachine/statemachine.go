// Package statemachine holds the ticket lifecycle as one declarative table
// keyed by (actor role, current status, action). Dispatch is the only
// place that decides whether an action is legal and what it changes.
package statemachine

import (
	"github.com/triage-desk/ticket-router/internal/domain"
	apperrors "github.com/triage-desk/ticket-router/pkg/util"
)

// Action is a role-specific request to move a ticket along.
type Action string

const (
	ActionAssignBusiness  Action = "assign_business"
	ActionContactVendor   Action = "contact_vendor"
	ActionVendorMessage   Action = "vendor_message"
	ActionBusinessMessage Action = "business_message"
	ActionResolve         Action = "resolve"
)

// Effect is a side effect a transition asks the caller to apply.
type Effect uint8

const (
	EffectBindBusiness Effect = 1 << iota
	EffectBindVendor
	EffectAppendMessage
)

// Has reports whether e includes flag.
func (e Effect) Has(flag Effect) bool {
	return e&flag != 0
}

// Recipient names which ticket party receives the appended message.
type Recipient uint8

const (
	RecipientNone Recipient = iota
	RecipientCustomer
	RecipientBusiness
	RecipientVendor
)

// Transition is one row of the table.
type Transition struct {
	To          domain.TicketStatus
	Effects     Effect
	MessageType domain.MessageType
	Recipient   Recipient
}

type key struct {
	role   domain.Role
	from   domain.TicketStatus
	action Action
}

var (
	assign = Transition{To: domain.TicketStatusBusinessAssigned, Effects: EffectBindBusiness}

	contactVendor = func(to domain.TicketStatus) Transition {
		return Transition{
			To:          to,
			Effects:     EffectBindVendor | EffectAppendMessage,
			MessageType: domain.MessageTypeVendorRequest,
			Recipient:   RecipientVendor,
		}
	}

	vendorMessage = func(to domain.TicketStatus) Transition {
		return Transition{
			To:          to,
			Effects:     EffectAppendMessage,
			MessageType: domain.MessageTypeVendorToBusiness,
			Recipient:   RecipientBusiness,
		}
	}

	businessMessage = func(to domain.TicketStatus) Transition {
		return Transition{
			To:          to,
			Effects:     EffectAppendMessage,
			MessageType: domain.MessageTypeBusinessToVendor,
			Recipient:   RecipientVendor,
		}
	}

	resolve = Transition{
		To:          domain.TicketStatusResolved,
		Effects:     EffectAppendMessage,
		MessageType: domain.MessageTypeResolution,
		Recipient:   RecipientCustomer,
	}
)

// table lists every legal transition. Anything absent is rejected.
var table = map[key]Transition{
	{domain.RoleBusiness, domain.TicketStatusOpen, ActionAssignBusiness}: assign,

	{domain.RoleBusiness, domain.TicketStatusBusinessAssigned, ActionContactVendor}: contactVendor(domain.TicketStatusVendorContacted),
	{domain.RoleBusiness, domain.TicketStatusVendorContacted, ActionContactVendor}:  contactVendor(domain.TicketStatusVendorContacted),
	{domain.RoleBusiness, domain.TicketStatusVendorResponded, ActionContactVendor}:  contactVendor(domain.TicketStatusVendorResponded),

	// Only the first vendor reply after contact advances the status.
	{domain.RoleVendor, domain.TicketStatusVendorContacted, ActionVendorMessage}: vendorMessage(domain.TicketStatusVendorResponded),
	{domain.RoleVendor, domain.TicketStatusVendorResponded, ActionVendorMessage}: vendorMessage(domain.TicketStatusVendorResponded),
	{domain.RoleVendor, domain.TicketStatusResolved, ActionVendorMessage}:        vendorMessage(domain.TicketStatusResolved),

	{domain.RoleBusiness, domain.TicketStatusBusinessAssigned, ActionBusinessMessage}: businessMessage(domain.TicketStatusBusinessAssigned),
	{domain.RoleBusiness, domain.TicketStatusVendorContacted, ActionBusinessMessage}:  businessMessage(domain.TicketStatusVendorContacted),
	{domain.RoleBusiness, domain.TicketStatusVendorResponded, ActionBusinessMessage}:  businessMessage(domain.TicketStatusVendorResponded),
	{domain.RoleBusiness, domain.TicketStatusResolved, ActionBusinessMessage}:         businessMessage(domain.TicketStatusResolved),

	// Any state with a business bound may resolve, including an already
	// resolved ticket, which appends a further resolution.
	{domain.RoleBusiness, domain.TicketStatusBusinessAssigned, ActionResolve}: resolve,
	{domain.RoleBusiness, domain.TicketStatusVendorContacted, ActionResolve}:  resolve,
	{domain.RoleBusiness, domain.TicketStatusVendorResponded, ActionResolve}:  resolve,
	{domain.RoleBusiness, domain.TicketStatusResolved, ActionResolve}:         resolve,
}

// requiredRole is derived from the table so the two cannot drift apart.
var requiredRole = func() map[Action]domain.Role {
	roles := make(map[Action]domain.Role)
	for k := range table {
		roles[k.action] = k.role
	}
	return roles
}()

// targetRole lists actions that name a second user who must hold a role.
var targetRole = map[Action]domain.Role{
	ActionAssignBusiness: domain.RoleBusiness,
	ActionContactVendor:  domain.RoleVendor,
}

// Request describes an attempted action.
type Request struct {
	Ticket *domain.Ticket
	Actor  *domain.User
	Action Action
	// Target is the business being assigned or the vendor being contacted.
	Target *domain.User
}

// Outcome is what the caller must apply when Dispatch succeeds.
type Outcome struct {
	From        domain.TicketStatus
	To          domain.TicketStatus
	BusinessID  *string
	VendorID    *string
	Append      bool
	MessageType domain.MessageType
	SenderID    string
	RecipientID *string
}

// StatusChanged reports whether the outcome moves the ticket.
func (o Outcome) StatusChanged() bool {
	return o.From != o.To
}

// Lookup returns the table row for (role, from, action).
func Lookup(role domain.Role, from domain.TicketStatus, action Action) (Transition, bool) {
	t, ok := table[key{role: role, from: from, action: action}]
	return t, ok
}

// RequiredRole returns the role an actor must hold to perform action.
func RequiredRole(action Action) (domain.Role, bool) {
	r, ok := requiredRole[action]
	return r, ok
}

// Dispatch validates req against the table and binding rules and returns
// the resulting changes. It never mutates req.Ticket.
func Dispatch(req Request) (Outcome, error) {
	if req.Ticket == nil || req.Actor == nil {
		return Outcome{}, apperrors.NewValidationError("ticket and actor required", nil)
	}
	ticket := req.Ticket
	details := map[string]any{
		"ticket_id": ticket.ID,
		"action":    string(req.Action),
		"status":    string(ticket.Status),
	}

	role, ok := requiredRole[req.Action]
	if !ok {
		return Outcome{}, apperrors.NewValidationError("unknown action", details)
	}
	if req.Actor.Role != role {
		details["actor_role"] = string(req.Actor.Role)
		details["required_role"] = string(role)
		return Outcome{}, apperrors.NewInvalidRole("actor lacks the role required for this action", details)
	}
	if want, needsTarget := targetRole[req.Action]; needsTarget {
		if req.Target == nil {
			return Outcome{}, apperrors.NewValidationError("target user required", details)
		}
		if req.Target.Role != want {
			details["target_role"] = string(req.Target.Role)
			details["required_role"] = string(want)
			return Outcome{}, apperrors.NewInvalidRole("target user lacks the required role", details)
		}
	}

	tr, ok := table[key{role: role, from: ticket.Status, action: req.Action}]
	if !ok {
		return Outcome{}, apperrors.NewInvalidTransition("action not allowed in current ticket status", details)
	}

	if err := checkBinding(req, details); err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		From:       ticket.Status,
		To:         tr.To,
		BusinessID: ticket.BusinessID,
		VendorID:   ticket.VendorID,
		Append:     tr.Effects.Has(EffectAppendMessage),
		SenderID:   req.Actor.ID,
	}
	if tr.Effects.Has(EffectBindBusiness) {
		out.BusinessID = strPtr(req.Actor.ID)
	}
	if tr.Effects.Has(EffectBindVendor) {
		out.VendorID = strPtr(req.Target.ID)
	}
	if out.Append {
		out.MessageType = tr.MessageType
		switch tr.Recipient {
		case RecipientCustomer:
			out.RecipientID = strPtr(ticket.CustomerID)
		case RecipientBusiness:
			out.RecipientID = copyPtr(out.BusinessID)
		case RecipientVendor:
			out.RecipientID = copyPtr(out.VendorID)
		}
	}
	return out, nil
}

func checkBinding(req Request, details map[string]any) error {
	ticket := req.Ticket
	switch req.Actor.Role {
	case domain.RoleBusiness:
		if req.Action == ActionAssignBusiness {
			return nil
		}
		if !ticket.HasBusiness() || *ticket.BusinessID != req.Actor.ID {
			return apperrors.NewInvalidTransition("actor is not the business assigned to this ticket", details)
		}
		if req.Action == ActionContactVendor && ticket.HasVendor() && *ticket.VendorID != req.Target.ID {
			details["vendor_id"] = *ticket.VendorID
			return apperrors.NewInvalidTransition("ticket is already bound to another vendor", details)
		}
	case domain.RoleVendor:
		if !ticket.HasVendor() || *ticket.VendorID != req.Actor.ID {
			return apperrors.NewInvalidTransition("actor is not the vendor bound to this ticket", details)
		}
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

func copyPtr(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return strPtr(*p)
}
