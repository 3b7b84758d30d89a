package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"threadline/internal/middleware"
	"threadline/internal/models"
	"threadline/internal/repository"
	"threadline/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Revoker stores revoked token ids.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// TokenPair is returned by ObtainToken.
type TokenPair struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	Bio       string
}

// AuthService registers users and issues, refreshes and revokes tokens.
type AuthService struct {
	users   repository.UserRepository
	revoker Revoker
	cfg     TokenConfig
	now     func() time.Time
}

// Token lifetimes used when TokenConfig leaves them unset. They match the
// ACCESS_TOKEN_TTL_MINUTES and REFRESH_TOKEN_TTL_HOURS config defaults.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

func NewAuthService(users repository.UserRepository, revoker Revoker, cfg TokenConfig) *AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, revoker: revoker, cfg: cfg, now: time.Now}
}

func invalidCredentials() error {
	return models.NewUnauthorizedError("No active account found with the given credentials")
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if in.Password != in.Password2 {
		return nil, models.NewFieldError("password", "Password fields didn't match.")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewFieldError("username", err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewFieldError("email", err.Error())
	}
	if err := validation.ValidatePassword(in.Password, username); err != nil {
		return nil, models.NewFieldError("password", err.Error())
	}
	if err := validation.ValidateMaxLen(in.Bio, models.MaxBioLen); err != nil {
		return nil, models.NewFieldError("bio", err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{Username: username, Email: email, Password: string(hash), Bio: in.Bio}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ObtainToken checks credentials and issues an access/refresh pair.
func (s *AuthService) ObtainToken(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}

	access, err := s.sign(user.ID, user.Username, middleware.TokenTypeAccess, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user.ID, user.Username, middleware.TokenTypeRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:   access,
		Refresh:  refresh,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// Refresh issues a new access token from a live refresh token.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.verifyRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}
	return s.sign(claims.UserID, claims.Username, middleware.TokenTypeAccess, s.cfg.AccessTTL)
}

// Logout blacklists the refresh token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	claims, err := s.verifyRefresh(ctx, refresh)
	if err != nil {
		return err
	}
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.JTI, claims.ExpiresAt.Sub(s.now())); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, actor models.Actor, oldPassword, newPassword string) error {
	if err := actor.Require(); err != nil {
		return err
	}
	hash, err := s.users.GetPasswordHash(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)) != nil {
		return models.NewFieldError("old_password", "Old password is not correct.")
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := validation.ValidatePassword(newPassword, user.Username); err != nil {
		return models.NewFieldError("new_password", err.Error())
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.users.UpdatePassword(ctx, actor.UserID, string(newHash))
}

func (s *AuthService) verifyRefresh(ctx context.Context, raw string) (*middleware.Claims, error) {
	if raw == "" {
		return nil, models.NewFieldError("refresh", "This field is required.")
	}
	claims, err := middleware.ParseToken(s.cfg.Secret, raw)
	if err != nil || claims.Type != middleware.TokenTypeRefresh {
		return nil, models.NewUnauthorizedError("Token is invalid or expired")
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.JTI)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if revoked {
			return nil, models.NewUnauthorizedError("Token is blacklisted")
		}
	}
	return claims, nil
}

func (s *AuthService) sign(userID uint, username, typ string, ttl time.Duration) (string, error) {
	if s.cfg.Secret == "" {
		return "", models.NewInternalError(errors.New("JWT secret not configured"))
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      middleware.TokenIssuer,
		"aud":      middleware.TokenAudience,
		"typ":      typ,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}
