package httpdto

import (
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/chat"
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
)

const (
	ActionSearchContacts = "search_contacts"
	ActionCreateChat     = "create_chat"
)

// CreateChatRequest is the POST /chats body.
type CreateChatRequest struct {
	Action    string `json:"action"`
	UserID    ID     `json:"user_id"`
	ContactID ID     `json:"contact_id"`
}

type ChatDTO struct {
	ID              int64   `json:"id"`
	Type            string  `json:"type"`
	Name            *string `json:"name"`
	AvatarURL       *string `json:"avatar_url"`
	UpdatedAt       string  `json:"updated_at"`
	LastMessage     *string `json:"last_message"`
	LastMessageTime *string `json:"last_message_time"`
	UnreadCount     int64   `json:"unread_count"`
	Online          bool    `json:"online"`
}

type ChatListResponse struct {
	Chats []ChatDTO `json:"chats"`
}

// ContactDTO is a search hit; it omits created_at.
type ContactDTO struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	FullName  *string `json:"full_name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
	Status    string  `json:"status"`
}

type ContactSearchResponse struct {
	Users []ContactDTO `json:"users"`
}

type CreateChatResponse struct {
	Success bool  `json:"success"`
	ChatID  int64 `json:"chat_id"`
}

func NewChatDTO(s chat.Summary) ChatDTO {
	return ChatDTO{
		ID:              s.ID,
		Type:            s.Type,
		Name:            nullableString(s.Name),
		AvatarURL:       nullableString(s.AvatarURL),
		UpdatedAt:       FormatTime(s.UpdatedAt),
		LastMessage:     nullableString(s.LastMessage),
		LastMessageTime: nullableTime(s.LastMessageTime),
		UnreadCount:     s.UnreadCount,
		Online:          s.Online,
	}
}

func NewChatListResponse(summaries []chat.Summary) ChatListResponse {
	chats := make([]ChatDTO, 0, len(summaries))
	for _, s := range summaries {
		chats = append(chats, NewChatDTO(s))
	}
	return ChatListResponse{Chats: chats}
}

func NewContactSearchResponse(users []user.User) ContactSearchResponse {
	out := make([]ContactDTO, 0, len(users))
	for _, u := range users {
		out = append(out, ContactDTO{
			ID:        u.ID,
			Email:     u.Email,
			Username:  u.Username,
			FullName:  nullableString(u.FullName),
			Phone:     nullableString(u.Phone),
			AvatarURL: nullableString(u.AvatarURL),
			Status:    u.Status,
		})
	}
	return ContactSearchResponse{Users: out}
}
