// Package seed fills a database with demo users, chats and messages through the services.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"go.uber.org/zap"
)

// Config holds configuration for seeding the database
type Config struct {
	Password  string
	UserCount int
}

// DefaultConfig returns default seed configuration
func DefaultConfig() *Config {
	return &Config{
		Password:  "Test@123!",
		UserCount: 5,
	}
}

// Result holds the result of the seeding operation
type Result struct {
	Users    []user.User
	ChatIDs  []int64
	Messages int
}

var demoUsers = []struct {
	email    string
	username string
	fullName string
	phone    string
}{
	{"alice@test.com", "alice", "Alice Johnson", "+1234567001"},
	{"bob@test.com", "bob", "Bob Smith", "+1234567002"},
	{"charlie@test.com", "charlie", "Charlie Brown", "+1234567003"},
	{"diana@test.com", "diana", "Diana Prince", "+1234567004"},
	{"edward@test.com", "edward", "Edward Chen", "+1234567005"},
	{"fiona@test.com", "fiona", "Fiona Green", "+1234567006"},
	{"george@test.com", "george", "George Miller", "+1234567007"},
	{"hannah@test.com", "hannah", "Hannah White", ""},
}

var demoScript = []string{
	"Hey! How are you?",
	"Good, thanks. Busy week?",
	"As always. Lunch tomorrow?",
	"Sure, 1pm works",
}

type Seeder struct {
	auth     *services.AuthService
	chats    *services.ChatService
	messages *services.MessageService
	log      *logger.Logger
}

func New(auth *services.AuthService, chats *services.ChatService, messages *services.MessageService, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Seeder{auth: auth, chats: chats, messages: messages, log: log}
}

// Run is idempotent: existing users are logged into, existing chats are reused and chats
// that already have history get no new messages.
func (s *Seeder) Run(ctx context.Context, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	count := cfg.UserCount
	if count > len(demoUsers) {
		count = len(demoUsers)
	}

	result := &Result{}
	for i := 0; i < count; i++ {
		u, err := s.ensureUser(ctx, i, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", demoUsers[i].username, err)
		}
		result.Users = append(result.Users, u)
	}

	// The first user talks to everyone; the rest form a chain.
	for i := 1; i < len(result.Users); i++ {
		pairs := [][2]user.User{{result.Users[0], result.Users[i]}}
		if i+1 < len(result.Users) {
			pairs = append(pairs, [2]user.User{result.Users[i], result.Users[i+1]})
		}
		for _, pair := range pairs {
			chatID, sent, err := s.ensureChat(ctx, pair[0], pair[1])
			if err != nil {
				return nil, fmt.Errorf("failed to seed chat %s-%s: %w", pair[0].Username, pair[1].Username, err)
			}
			result.ChatIDs = append(result.ChatIDs, chatID)
			result.Messages += sent
		}
	}

	s.log.Logger.Info("seeding completed",
		zap.Int("users", len(result.Users)),
		zap.Int("chats", len(result.ChatIDs)),
		zap.Int("messages", result.Messages),
	)
	return result, nil
}

func (s *Seeder) ensureUser(ctx context.Context, i int, password string) (user.User, error) {
	data := demoUsers[i]
	res, err := s.auth.Register(ctx, services.RegisterInput{
		Email:    data.email,
		Username: data.username,
		Password: password,
		FullName: data.fullName,
		Phone:    data.phone,
	})
	if err == nil {
		return res.User, nil
	}
	if !errors.Is(err, messenger_errors.ErrAlreadyExists) {
		return user.User{}, err
	}

	s.log.Logger.Debug("user already exists, skipping", zap.String("email", data.email))
	res, err = s.auth.Login(ctx, services.LoginInput{Identifier: data.email, Password: password})
	if err != nil {
		return user.User{}, err
	}
	return res.User, nil
}

func (s *Seeder) ensureChat(ctx context.Context, a, b user.User) (int64, int, error) {
	chatID, err := s.chats.CreateChat(ctx, a.ID, b.ID)
	if err != nil {
		return 0, 0, err
	}

	history, err := s.messages.ListMessages(ctx, chatID)
	if err != nil {
		return 0, 0, err
	}
	if len(history) > 0 {
		return chatID, 0, nil
	}

	senders := [2]int64{a.ID, b.ID}
	for i, content := range demoScript {
		if _, err := s.messages.SendMessage(ctx, services.SendMessageInput{
			ChatID:   chatID,
			SenderID: senders[i%2],
			Content:  content,
		}); err != nil {
			return 0, 0, err
		}
	}
	return chatID, len(demoScript), nil
}
