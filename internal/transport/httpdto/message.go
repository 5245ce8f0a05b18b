package httpdto

import (
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/message"
)

// SendMessageRequest is the POST /messages body. Type defaults to text.
type SendMessageRequest struct {
	ChatID   ID     `json:"chat_id"`
	SenderID ID     `json:"sender_id"`
	Content  string `json:"content"`
	Type     string `json:"type"`
}

type MessageDTO struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chat_id"`
	SenderID  int64  `json:"sender_id"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	IsRead    bool   `json:"is_read"`
}

// MessageWithSenderDTO flattens the sender's display fields into the message object.
type MessageWithSenderDTO struct {
	MessageDTO
	Username  string  `json:"username"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

type MessageListResponse struct {
	Messages []MessageWithSenderDTO `json:"messages"`
}

type SendMessageResponse struct {
	Success bool       `json:"success"`
	Message MessageDTO `json:"message"`
}

func NewMessageDTO(m message.Message) MessageDTO {
	return MessageDTO{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      m.Type,
		CreatedAt: FormatTime(m.CreatedAt),
		IsRead:    m.IsRead,
	}
}

func NewMessageListResponse(messages []message.WithSender) MessageListResponse {
	out := make([]MessageWithSenderDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageWithSenderDTO{
			MessageDTO: NewMessageDTO(m.Message),
			Username:   m.Username,
			FullName:   nullableString(m.FullName),
			AvatarURL:  nullableString(m.AvatarURL),
		})
	}
	return MessageListResponse{Messages: out}
}

func NewSendMessageResponse(m message.Message) SendMessageResponse {
	return SendMessageResponse{Success: true, Message: NewMessageDTO(m)}
}
