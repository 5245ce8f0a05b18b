package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/pr-poehali-dev/messenger-design-project/config"
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
	"github.com/pr-poehali-dev/messenger-design-project/internal/observability"
	"github.com/pr-poehali-dev/messenger-design-project/internal/repository"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PresenceTracker mirrors a user's online status outside the database.
type PresenceTracker interface {
	SetOnline(ctx context.Context, userID int64) error
}

type AuthService struct {
	store      repository.Store
	presence   PresenceTracker
	bcryptCost int
	log        *logger.Logger
}

// NewAuthService builds the service. presence may be nil.
func NewAuthService(store repository.Store, cfg *config.Config, presence PresenceTracker, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthService{
		store:      store,
		presence:   presence,
		bcryptCost: cfg.BcryptCost,
		log:        log,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
	Phone    string
}

type LoginInput struct {
	Identifier string
	Password   string
}

// AuthResult is the authenticated user plus a fresh opaque token.
type AuthResult struct {
	User  user.User
	Token string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := validateRegister(in); err != nil {
		observability.Registrations.WithLabelValues("invalid").Inc()
		return AuthResult{}, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		observability.Registrations.WithLabelValues("error").Inc()
		return AuthResult{}, err
	}

	newUser := &user.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     sql.NullString{String: in.FullName, Valid: true},
		Phone:        toNullString(in.Phone),
	}
	if err := s.store.Users().Create(ctx, newUser); err != nil {
		if errors.Is(err, messenger_errors.ErrAlreadyExists) {
			observability.Registrations.WithLabelValues("duplicate").Inc()
			return AuthResult{}, messenger_errors.WithMessage(messenger_errors.ErrAlreadyExists, MsgDuplicateAccount)
		}
		observability.Registrations.WithLabelValues("error").Inc()
		return AuthResult{}, err
	}
	observability.Registrations.WithLabelValues("created").Inc()

	s.markPresence(ctx, newUser.ID)
	return s.issue(*newUser)
}

// Login accepts the first user matching identifier on email, username or phone whose
// password verifies. Legacy SHA-256 hashes are replaced with bcrypt on success.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	invalid := messenger_errors.WithMessage(messenger_errors.ErrUnauthorized, MsgInvalidLogin)
	if in.Identifier == "" || in.Password == "" {
		observability.Logins.WithLabelValues("failure").Inc()
		return AuthResult{}, invalid
	}

	candidates, err := s.store.Users().FindByIdentifier(ctx, in.Identifier)
	if err != nil {
		observability.Logins.WithLabelValues("error").Inc()
		return AuthResult{}, err
	}

	for _, u := range candidates {
		ok, legacy := verifyPassword(u.PasswordHash, in.Password)
		if !ok {
			continue
		}

		if err := s.store.Users().MarkOnline(ctx, u.ID); err != nil {
			observability.Logins.WithLabelValues("error").Inc()
			return AuthResult{}, err
		}
		u.Status = user.StatusOnline

		if legacy {
			s.upgradeHash(ctx, u.ID, in.Password)
		}

		observability.Logins.WithLabelValues("success").Inc()
		s.markPresence(ctx, u.ID)
		return s.issue(u)
	}

	observability.Logins.WithLabelValues("failure").Inc()
	return AuthResult{}, invalid
}

func (s *AuthService) issue(u user.User) (AuthResult, error) {
	token, err := generateToken(32)
	if err != nil {
		return AuthResult{}, err
	}
	u.PasswordHash = ""
	return AuthResult{User: u, Token: token}, nil
}

func (s *AuthService) upgradeHash(ctx context.Context, userID int64, password string) {
	hash, err := s.hashPassword(password)
	if err == nil {
		err = s.store.Users().UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		s.log.WithContext(ctx).Warn("password hash upgrade failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	observability.PasswordUpgrades.Inc()
}

func (s *AuthService) markPresence(ctx context.Context, userID int64) {
	if s.presence == nil {
		return
	}
	if err := s.presence.SetOnline(ctx, userID); err != nil {
		s.log.WithContext(ctx).Warn("presence update failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func validateRegister(in RegisterInput) error {
	if in.Email == "" || in.Username == "" || in.Password == "" {
		return messenger_errors.WithMessage(messenger_errors.ErrInvalidInput, "email, username and password are required")
	}
	return nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// verifyPassword reports whether password matches hash, and whether hash is a legacy
// unsalted SHA-256 digest.
func verifyPassword(hash, password string) (ok bool, legacy bool) {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, false
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(legacyHash(password))) == 1, true
}

func legacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func toNullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
