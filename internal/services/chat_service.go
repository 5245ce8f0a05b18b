package services

import (
	"context"
	"errors"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/chat"
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
	"github.com/pr-poehali-dev/messenger-design-project/internal/observability"
	"github.com/pr-poehali-dev/messenger-design-project/internal/repository"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"
)

const SearchLimit = 20

type ChatService struct {
	store repository.Store
}

func NewChatService(store repository.Store) *ChatService {
	return &ChatService{store: store}
}

// ListChats returns the chats of userID, most recently active first, with personal chats
// named after the other member.
func (s *ChatService) ListChats(ctx context.Context, userID int64) ([]chat.Summary, error) {
	summaries, err := s.store.Chats().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i] = summaries[i].Resolve()
	}
	return summaries, nil
}

func (s *ChatService) SearchContacts(ctx context.Context, userID int64, query string) ([]user.User, error) {
	return s.store.Users().Search(ctx, userID, query, SearchLimit)
}

// CreateChat returns the personal chat of the pair, creating it together with both
// memberships and both contact edges when it does not exist yet.
func (s *ChatService) CreateChat(ctx context.Context, userID, contactID int64) (int64, error) {
	if userID == contactID {
		return 0, messenger_errors.WithMessage(messenger_errors.ErrInvalidInput, "cannot create a chat with yourself")
	}

	var (
		chatID  int64
		created bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		chats := tx.Chats()

		id, err := chats.FindPersonal(ctx, userID, contactID)
		if err == nil {
			chatID = id
			return nil
		}
		if !errors.Is(err, messenger_errors.ErrNotFound) {
			return err
		}

		id, created, err = chats.CreatePersonal(ctx, userID, contactID)
		if err != nil {
			return err
		}
		if !created {
			// A concurrent request committed the pair first.
			chatID, err = chats.FindPersonal(ctx, userID, contactID)
			return err
		}

		if err := chats.AddMembers(ctx, id, userID, contactID); err != nil {
			return err
		}
		if err := chats.AddContactPair(ctx, userID, contactID); err != nil {
			return err
		}
		chatID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created {
		observability.ChatsCreated.Inc()
	}
	return chatID, nil
}
