package service

import (
	"context"
	"strings"

	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/repository"
	apperrors "github.com/triage-desk/ticket-router/pkg/util"
)

// MessageLedger is the append-only record of messages per ticket. It does
// not judge whether a message is allowed; callers append only after a
// legal transition.
type MessageLedger struct {
	store repository.Store
}

// NewMessageLedger builds a ledger over store.
func NewMessageLedger(store repository.Store) *MessageLedger {
	return &MessageLedger{store: store}
}

// Append writes one entry through repo, which is the transaction's
// message repository when called from the workflow.
func (l *MessageLedger) Append(ctx context.Context, repo repository.MessageRepository, ticketID, senderID string, recipientID *string, content string, msgType domain.MessageType) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("message content required", map[string]any{"ticket_id": ticketID})
	}
	if !msgType.Valid() {
		return nil, apperrors.NewValidationError("unknown message type", map[string]any{"message_type": string(msgType)})
	}
	if repo == nil {
		repo = l.store.Repos().Messages
	}
	msg := &domain.Message{
		TicketID:    ticketID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Type:        msgType,
	}
	if err := repo.Append(ctx, msg); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return msg, nil
}

// ListByTicket returns a ticket's messages in append order.
func (l *MessageLedger) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	msgs, err := l.store.Repos().Messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return msgs, nil
}
