package dto

import (
	"time"

	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/service"
)

// SendMessageRequest payload.
type SendMessageRequest struct {
	SenderID string `json:"sender_id" form:"sender_id"`
	Content  string `json:"content" form:"content"`
}

// MessageResponse is one ledger entry as a viewer sees it.
type MessageResponse struct {
	ID          string             `json:"id"`
	Content     string             `json:"content"`
	MessageType domain.MessageType `json:"message_type"`
	CreatedAt   time.Time          `json:"created_at"`
	Sender      *UserRoleRef       `json:"sender"`
	Recipient   *UserRoleRef       `json:"recipient"`
}

// NewMessageResponse maps a projected message.
func NewMessageResponse(v service.MessageView) MessageResponse {
	return MessageResponse{
		ID:          v.ID,
		Content:     v.Content,
		MessageType: v.Type,
		CreatedAt:   v.CreatedAt,
		Sender:      userRoleRef(v.Sender),
		Recipient:   userRoleRef(v.Recipient),
	}
}
