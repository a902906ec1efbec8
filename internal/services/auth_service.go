package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"syspres_app/internal/models"
)

const sessionTTL = 12 * time.Hour

// ErrInvalidCredentials covers unknown users, wrong passwords and
// deactivated accounts alike, so login failures don't leak which one it
// was.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Session is the authenticated operator attached to each request
type Session struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	Permissions string `json:"permissions"`
}

// HasPermission mirrors models.User.HasPermission on the cached copy.
func (s Session) HasPermission(p models.Permission) bool {
	u := models.User{Permissions: s.Permissions}
	return u.HasPermission(p)
}

// AuthService verifies operator credentials and keeps sessions in Redis.
type AuthService struct {
	db     *gorm.DB
	cache  *RedisCache
	logger *zap.Logger
}

func NewAuthService(db *gorm.DB, cache *RedisCache, logger *zap.Logger) *AuthService {
	return &AuthService{db: db, cache: cache, logger: logger}
}

// Login checks the password and opens a session, returning its token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	session := Session{
		UserID:      user.ID,
		Username:    user.Username,
		Permissions: user.Permissions,
	}
	if err := s.cache.Set(ctx, sessionKey(token), session, sessionTTL); err != nil {
		return "", nil, err
	}

	s.logger.Info("operator logged in", zap.String("username", user.Username))
	return token, &user, nil
}

// Logout invalidates a session token.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.cache.Delete(ctx, sessionKey(token)); err != nil {
		s.logger.Warn("session delete failed", zap.Error(err))
	}
}

// Resolve returns the session behind a token, or nil when expired or
// unknown.
func (s *AuthService) Resolve(ctx context.Context, token string) (*Session, error) {
	var session Session
	err := s.cache.Get(ctx, sessionKey(token), &session)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// HashPassword produces the stored bcrypt hash for a new password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
