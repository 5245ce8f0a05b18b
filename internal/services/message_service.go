package services

import (
	"context"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/message"
	"github.com/pr-poehali-dev/messenger-design-project/internal/observability"
	"github.com/pr-poehali-dev/messenger-design-project/internal/repository"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"
)

type MessageService struct {
	store repository.Store
}

func NewMessageService(store repository.Store) *MessageService {
	return &MessageService{store: store}
}

type SendMessageInput struct {
	ChatID   int64
	SenderID int64
	Content  string
	Type     string
}

func (s *MessageService) ListMessages(ctx context.Context, chatID int64) ([]message.WithSender, error) {
	return s.store.Messages().ListByChat(ctx, chatID)
}

// SendMessage stores the message and bumps the chat's updated_at in one transaction.
func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (message.Message, error) {
	if in.Content == "" {
		return message.Message{}, messenger_errors.WithMessage(messenger_errors.ErrInvalidInput, "content is required")
	}
	if in.Type == "" {
		in.Type = message.TypeText
	}

	msg := message.Message{
		ChatID:   in.ChatID,
		SenderID: in.SenderID,
		Content:  in.Content,
		Type:     in.Type,
	}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Messages().Create(ctx, &msg); err != nil {
			return err
		}
		return tx.Chats().Touch(ctx, msg.ChatID)
	})
	if err != nil {
		return message.Message{}, err
	}

	observability.MessagesSent.WithLabelValues(message.MetricType(msg.Type)).Inc()
	return msg, nil
}
