// Package testutil provides an in-memory repository.Store for service and handler tests.
package testutil

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/chat"
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/message"
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
	"github.com/pr-poehali-dev/messenger-design-project/internal/repository"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"
)

type state struct {
	users    []user.User
	chats    []chat.Chat
	members  []chat.Member
	contacts []chat.Contact
	messages []message.Message
	lastID   int64
	clock    time.Time
}

func (s *state) clone() state {
	c := *s
	c.users = append([]user.User(nil), s.users...)
	c.chats = append([]chat.Chat(nil), s.chats...)
	c.members = append([]chat.Member(nil), s.members...)
	c.contacts = append([]chat.Contact(nil), s.contacts...)
	c.messages = append([]message.Message(nil), s.messages...)
	return c
}

// MemoryStore mirrors the constraints of the Postgres schema: unique email, username and phone,
// one personal chat per pair, unique contact edges and foreign keys on ids.
// Timestamps advance by one millisecond per write so ordering is deterministic.
type MemoryStore struct {
	mu sync.Mutex
	st state

	// FailWith, when set, is returned by every repository call.
	FailWith error
}

var _ repository.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: state{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}
}

func (s *MemoryStore) Users() repository.UserRepository       { return memUsers{s} }
func (s *MemoryStore) Chats() repository.ChatRepository       { return memChats{s} }
func (s *MemoryStore) Messages() repository.MessageRepository { return memMessages{s} }

// WithTx restores the previous state when fn fails or panics.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	panicked := true
	defer func() {
		if panicked || err != nil {
			s.mu.Lock()
			s.st = snapshot
			s.mu.Unlock()
		}
	}()

	err = fn(s)
	panicked = false
	return err
}

func (s *MemoryStore) lock() error {
	s.mu.Lock()
	if s.FailWith != nil {
		s.mu.Unlock()
		return s.FailWith
	}
	return nil
}

func (s *MemoryStore) nextID() int64 {
	s.st.lastID++
	return s.st.lastID
}

func (s *MemoryStore) tick() time.Time {
	s.st.clock = s.st.clock.Add(time.Millisecond)
	return s.st.clock
}

func (s *MemoryStore) userIndex(id int64) int {
	for i := range s.st.users {
		if s.st.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) chatIndex(id int64) int {
	for i := range s.st.chats {
		if s.st.chats[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) isMember(chatID, userID int64) bool {
	for _, m := range s.st.members {
		if m.ChatID == chatID && m.UserID == userID {
			return true
		}
	}
	return false
}

// Inspection helpers.

func (s *MemoryStore) User(id int64) (user.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.userIndex(id); i >= 0 {
		return s.st.users[i], true
	}
	return user.User{}, false
}

func (s *MemoryStore) Chat(id int64) (chat.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.chatIndex(id); i >= 0 {
		return s.st.chats[i], true
	}
	return chat.Chat{}, false
}

func (s *MemoryStore) ChatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.chats)
}

func (s *MemoryStore) MemberIDs(chatID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, m := range s.st.members {
		if m.ChatID == chatID {
			ids = append(ids, m.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *MemoryStore) ContactCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.contacts)
}

func (s *MemoryStore) HasContact(userID, contactID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.st.contacts {
		if c.UserID == userID && c.ContactUserID == contactID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.messages)
}

// Fixture helpers. They bypass the repositories and never fail.

// AddUser stores u as-is apart from the id and timestamps, and returns the stored row.
func (s *MemoryStore) AddUser(u user.User) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID()
	u.CreatedAt = s.tick()
	if u.Status == "" {
		u.Status = user.StatusOffline
	}
	s.st.users = append(s.st.users, u)
	return u
}

// AddGroup creates a group chat with the given members.
func (s *MemoryStore) AddGroup(name string, memberIDs ...int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	s.st.chats = append(s.st.chats, chat.Chat{
		ID:        id,
		Type:      chat.TypeGroup,
		Name:      nullString(name),
		UpdatedAt: s.tick(),
	})
	for _, uid := range memberIDs {
		s.st.members = append(s.st.members, chat.Member{ChatID: id, UserID: uid})
	}
	return id
}

// AddMessage stores a message without touching the chat.
func (s *MemoryStore) AddMessage(chatID, senderID int64, content string, read bool) message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := message.Message{
		ID:        s.nextID(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Type:      message.TypeText,
		CreatedAt: s.tick(),
		IsRead:    read,
	}
	s.st.messages = append(s.st.messages, m)
	return m
}

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, u *user.User) error {
	s := r.s
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	for _, existing := range s.st.users {
		if existing.Email == u.Email || existing.Username == u.Username ||
			(u.Phone.Valid && existing.Phone.Valid && existing.Phone.String == u.Phone.String) {
			return messenger_errors.ErrAlreadyExists
		}
	}

	created := *u
	created.ID = s.nextID()
	created.Status = user.StatusOnline
	created.CreatedAt = s.tick()
	created.LastSeen.Time, created.LastSeen.Valid = created.CreatedAt, true
	s.st.users = append(s.st.users, created)
	*u = created
	return nil
}

func (r memUsers) FindByIdentifier(ctx context.Context, identifier string) ([]user.User, error) {
	s := r.s
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	var found []user.User
	for _, u := range s.st.users {
		if u.Email == identifier || u.Username == identifier || (u.Phone.Valid && u.Phone.String == identifier) {
			found = append(found, u)
		}
	}
	return found, nil
}

func (r memUsers) MarkOnline(ctx context.Context, userID int64) error {
	s := r.s
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	i := s.userIndex(userID)
	if i < 0 {
		return messenger_errors.ErrNotFound
	}
	s.st.users[i].Status = user.StatusOnline
	s.st.users[i].LastSeen.Time, s.st.users[i].LastSeen.Valid = s.tick(), true
	return nil
}

func (r memUsers) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	s := r.s
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	i := s.userIndex(userID)
	if i < 0 {
		return messenger_errors.ErrNotFound
	}
	s.st.users[i].PasswordHash = hash
	return nil
}

func (r memUsers) Search(ctx context.Context, excludeUserID int64, query string, limit int) ([]user.User, error) {
	s := r.s
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	contains := func(v string) bool { return strings.Contains(strings.ToLower(v), q) }

	found := make([]user.User, 0)
	for _, u := range s.st.users {
		if len(found) == limit {
			break
		}
		if u.ID == excludeUserID {
			continue
		}
		if contains(u.Email) || contains(u.Username) ||
			(u.Phone.Valid && contains(u.Phone.String)) ||
			(u.FullName.Valid && contains(u.FullName.String)) {
			found = append(found, u)
		}
	}
	return found, nil
}

type memChats struct{ s *MemoryStore }

func (r memChats) ListForUser(ctx context.Context, userID int64) ([]chat.Summary, error) {
	s := r.s
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	summaries := make([]chat.Summary, 0)
	for _, c := range s.st.chats {
		if !s.isMember(c.ID, userID) {
			continue
		}
		sum := chat.Summary{
			ID:        c.ID,
			Type:      c.Type,
			Name:      c.Name,
			AvatarURL: c.AvatarURL,
			UpdatedAt: c.UpdatedAt,
		}

		var last *message.Message
		for i := range s.st.messages {
			m := &s.st.messages[i]
			if m.ChatID != c.ID {
				continue
			}
			if last == nil || m.CreatedAt.After(last.CreatedAt) || (m.CreatedAt.Equal(last.CreatedAt) && m.ID > last.ID) {
				last = m
			}
			if m.SenderID != userID && !m.IsRead {
				sum.UnreadCount++
			}
		}
		if last != nil {
			sum.LastMessage = nullString(last.Content)
			sum.LastMessageTime.Time, sum.LastMessageTime.Valid = last.CreatedAt, true
		}

		if c.Type == chat.TypePersonal {
			var peer *user.User
			for _, m := range s.st.members {
				if m.ChatID != c.ID || m.UserID == userID {
					continue
				}
				if i := s.userIndex(m.UserID); i >= 0 && (peer == nil || s.st.users[i].ID < peer.ID) {
					peer = &s.st.users[i]
				}
			}
			if peer != nil {
				sum.PeerID.Int64, sum.PeerID.Valid = peer.ID, true
				sum.PeerUsername = nullString(peer.Username)
				sum.PeerFullName = peer.FullName
				sum.PeerAvatarURL = peer.AvatarURL
				sum.PeerStatus = nullString(peer.Status)
			}
		}
		summaries = append(summaries, sum)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}

func (r memChats) FindPersonal(ctx context.Context, userID, contactID int64) (int64, error) {
	s := r.s
	if err := s.lock(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	key := chat.PersonalKey(userID, contactID)
	for _, c := range s.st.chats {
		if c.Type != chat.TypePersonal {
			continue
		}
		if (c.PersonalKey.Valid && c.PersonalKey.String == key) ||
			(s.isMember(c.ID, userID) && s.isMember(c.ID, contactID)) {
			return c.ID, nil
		}
	}
	return 0, messenger_errors.ErrNotFound
}

func (r memChats) CreatePersonal(ctx context.Context, userID, contactID int64) (int64, bool, error) {
	s := r.s
	if err := s.lock(); err != nil {
		return 0, false, err
	}
	defer s.mu.Unlock()

	key := chat.PersonalKey(userID, contactID)
	for _, c := range s.st.chats {
		if c.PersonalKey.Valid && c.PersonalKey.String == key {
			return 0, false, nil
		}
	}
	id := s.nextID()
	s.st.chats = append(s.st.chats, chat.Chat{
		ID:          id,
		Type:        chat.TypePersonal,
		PersonalKey: nullString(key),
		UpdatedAt:   s.tick(),
	})
	return id, true, nil
}

func (r memChats) AddMembers(ctx context.Context, chatID int64, userIDs ...int64) error {
	s := r.s
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.chatIndex(chatID) < 0 {
		return messenger_errors.ErrNotFound
	}
	for _, uid := range userIDs {
		if s.userIndex(uid) < 0 {
			return messenger_errors.ErrNotFound
		}
		if s.isMember(chatID, uid) {
			return messenger_errors.ErrAlreadyExists
		}
	}
	for _, uid := range userIDs {
		s.st.members = append(s.st.members, chat.Member{ChatID: chatID, UserID: uid})
	}
	return nil
}

func (r memChats) AddContactPair(ctx context.Context, userID, contactID int64) error {
	s := r.s
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.userIndex(userID) < 0 || s.userIndex(contactID) < 0 {
		return messenger_errors.ErrNotFound
	}
	for _, edge := range []chat.Contact{{UserID: userID, ContactUserID: contactID}, {UserID: contactID, ContactUserID: userID}} {
		exists := false
		for _, c := range s.st.contacts {
			if c == edge {
				exists = true
				break
			}
		}
		if !exists {
			s.st.contacts = append(s.st.contacts, edge)
		}
	}
	return nil
}

func (r memChats) Touch(ctx context.Context, chatID int64) error {
	s := r.s
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	i := s.chatIndex(chatID)
	if i < 0 {
		return messenger_errors.ErrNotFound
	}
	s.st.chats[i].UpdatedAt = s.tick()
	return nil
}

type memMessages struct{ s *MemoryStore }

func (r memMessages) Create(ctx context.Context, m *message.Message) error {
	s := r.s
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.chatIndex(m.ChatID) < 0 || s.userIndex(m.SenderID) < 0 {
		return messenger_errors.ErrNotFound
	}
	created := *m
	created.ID = s.nextID()
	created.CreatedAt = s.tick()
	created.IsRead = false
	s.st.messages = append(s.st.messages, created)
	*m = created
	return nil
}

func (r memMessages) ListByChat(ctx context.Context, chatID int64) ([]message.WithSender, error) {
	s := r.s
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	out := make([]message.WithSender, 0)
	for _, m := range s.st.messages {
		if m.ChatID != chatID {
			continue
		}
		i := s.userIndex(m.SenderID)
		if i < 0 {
			continue
		}
		sender := s.st.users[i]
		out = append(out, message.WithSender{
			Message:   m,
			Username:  sender.Username,
			FullName:  sender.FullName,
			AvatarURL: sender.AvatarURL,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
