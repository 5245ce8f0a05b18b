package message

import (
	"database/sql"
	"time"
)

const (
	TypeText  = "text"
	TypeOther = "other"
)

// MetricType folds the free-form type column into a fixed set of metric labels.
func MetricType(t string) string {
	if t == TypeText {
		return TypeText
	}
	return TypeOther
}

// Message represents the messages table
type Message struct {
	ID        int64
	ChatID    int64
	SenderID  int64
	Content   string
	Type      string
	CreatedAt time.Time
	IsRead    bool
}

// WithSender is a message joined with the display fields of its sender.
type WithSender struct {
	Message
	Username  string
	FullName  sql.NullString
	AvatarURL sql.NullString
}
