package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/triage-desk/ticket-router/internal/domain"
)

// MessageRepository is the append-only store behind the message ledger.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
}

type messageRepository struct {
	db DBTX
}

// NewMessageRepository builds repository.
func NewMessageRepository(db DBTX) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (ticket_id, sender_id, recipient_id, content, message_type)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return errors.WithStack(r.db.QueryRow(ctx, query,
		msg.TicketID,
		msg.SenderID,
		msg.RecipientID,
		msg.Content,
		msg.Type,
	).Scan(&msg.ID, &msg.CreatedAt))
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	const query = `
        SELECT id, ticket_id, sender_id, recipient_id, content, message_type, created_at
        FROM messages WHERE ticket_id=$1 ORDER BY seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Content,
			&msg.Type,
			&msg.CreatedAt,
		); err != nil {
			return nil, errors.WithStack(err)
		}
		result = append(result, msg)
	}
	return result, errors.WithStack(rows.Err())
}
