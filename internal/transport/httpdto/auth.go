package httpdto

import (
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
)

const (
	ActionRegister = "register"
	ActionLogin    = "login"
)

// AuthRequest is the POST /auth body. Action selects register or login.
type AuthRequest struct {
	Action     string `json:"action"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Identifier string `json:"identifier"`
}

type UserDTO struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	FullName  *string `json:"full_name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Success bool    `json:"success"`
	User    UserDTO `json:"user"`
	Token   string  `json:"token"`
}

func NewUserDTO(u user.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  nullableString(u.FullName),
		Phone:     nullableString(u.Phone),
		AvatarURL: nullableString(u.AvatarURL),
		Status:    u.Status,
		CreatedAt: FormatTime(u.CreatedAt),
	}
}

func NewAuthResponse(u user.User, token string) AuthResponse {
	return AuthResponse{Success: true, User: NewUserDTO(u), Token: token}
}
