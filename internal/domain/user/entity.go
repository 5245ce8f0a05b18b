package user

import (
	"database/sql"
	"time"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// User represents the users table
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	FullName     sql.NullString
	Phone        sql.NullString
	AvatarURL    sql.NullString
	Status       string
	CreatedAt    time.Time
	LastSeen     sql.NullTime
}
