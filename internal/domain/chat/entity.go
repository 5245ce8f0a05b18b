package chat

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	TypePersonal = "personal"
	TypeGroup    = "group"
)

// Chat represents the chats table
type Chat struct {
	ID          int64
	Type        string
	Name        sql.NullString
	AvatarURL   sql.NullString
	PersonalKey sql.NullString
	UpdatedAt   time.Time
}

// Member represents the chat_members table
type Member struct {
	ChatID int64
	UserID int64
}

// Contact represents the contacts table. The edge is directed: UserID has ContactUserID as a contact.
type Contact struct {
	UserID        int64
	ContactUserID int64
}

// PersonalKey identifies the unordered pair of users of a personal chat.
func PersonalKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Summary is one row of a user's chat list.
type Summary struct {
	ID              int64
	Type            string
	Name            sql.NullString
	AvatarURL       sql.NullString
	UpdatedAt       time.Time
	LastMessage     sql.NullString
	LastMessageTime sql.NullTime
	UnreadCount     int64
	Online          bool

	// The other member of a personal chat, as seen by the requesting user.
	PeerID        sql.NullInt64
	PeerUsername  sql.NullString
	PeerFullName  sql.NullString
	PeerAvatarURL sql.NullString
	PeerStatus    sql.NullString
}

// Resolve substitutes the peer's display name, avatar and presence into a personal chat.
// Group chats keep their own name and are never reported online.
func (s Summary) Resolve() Summary {
	if s.Type != TypePersonal || !s.PeerID.Valid {
		s.Online = false
		return s
	}
	name := s.PeerUsername.String
	if s.PeerFullName.Valid && s.PeerFullName.String != "" {
		name = s.PeerFullName.String
	}
	s.Name = sql.NullString{String: name, Valid: true}
	s.AvatarURL = s.PeerAvatarURL
	s.Online = s.PeerStatus.Valid && s.PeerStatus.String == "online"
	return s
}
